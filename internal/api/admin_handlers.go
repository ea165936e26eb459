package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"questbooking/internal/entities"
	"questbooking/internal/service"
)

// AdminHandler serves the administrator panel: booking management,
// blocked dates, and the support contact.
type AdminHandler struct {
	Service  *service.BookingService
	Settings *service.SettingsService
}

func NewAdminHandler(svc *service.BookingService, settings *service.SettingsService) *AdminHandler {
	return &AdminHandler{Service: svc, Settings: settings}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	activityID := r.URL.Query().Get("activity")
	status := r.URL.Query().Get("status")
	bookings, err := h.Service.ListBookings(date, activityID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, entities.ToBookingResponse(&bookings[i], quotedPrice(&bookings[i])))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBooking lets an administrator book directly, optionally already
// confirmed.
func (h *AdminHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	booking, err := h.Service.CreateBooking(req, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.ToBookingResponse(booking, quotedPrice(booking)))
}

func (h *AdminHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch entities.BookingPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	booking, err := h.Service.UpdateBooking(id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.ToBookingResponse(booking, quotedPrice(booking)))
}

func (h *AdminHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var fields entities.ConfirmationFields
	if !decodeAndValidate(w, r, &fields) {
		return
	}
	booking, err := h.Service.ConfirmBooking(id, fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.ToBookingResponse(booking, quotedPrice(booking)))
}

func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.DeleteBooking(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking deleted"})
}

func (h *AdminHandler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.Service.ListBlockedDates()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]entities.BlockedDateResponse, 0, len(blocked))
	for _, bd := range blocked {
		resp = append(resp, entities.BlockedDateResponse{Date: bd.Date, Reason: bd.Reason})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) BlockDates(w http.ResponseWriter, r *http.Request) {
	var req entities.BlockDatesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	count, err := h.Service.BlockDates(req.Dates, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"blocked": count})
}

func (h *AdminHandler) UnblockDate(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	removed, err := h.Service.UnblockDate(date)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "date was not blocked"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "date unblocked"})
}

func (h *AdminHandler) UpdateSupportPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupportPhone string `json:"support_phone" validate:"required"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Settings.SetSupportPhone(req.SupportPhone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"support_phone": h.Settings.SupportPhone()})
}
