package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "questbooking/internal/errors"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the domain taxonomy onto HTTP statuses: slot
// violations are 409 with a machine-readable reason, absence is 404,
// persistence failures are 500.
func writeError(w http.ResponseWriter, err error) {
	var slotErr *apperrors.SlotUnavailableError
	if errors.As(err, &slotErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     "slot unavailable",
			"reason":    slotErr.Reason,
			"date":      slotErr.Date,
			"time_slot": slotErr.TimeSlot,
		})
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		writeJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}
