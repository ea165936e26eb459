package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"questbooking/internal/db"
	"questbooking/internal/entities"
	apperrors "questbooking/internal/errors"
	"questbooking/internal/service"
)

// UserBookingHandler serves the customer booking flow.
type UserBookingHandler struct {
	Service  *service.BookingService
	Settings *service.SettingsService
}

func NewUserBookingHandler(svc *service.BookingService, settings *service.SettingsService) *UserBookingHandler {
	return &UserBookingHandler{Service: svc, Settings: settings}
}

func quotedPrice(b *db.Booking) int {
	activity, ok := entities.ActivityByID(b.ActivityID)
	if !ok {
		return 0
	}
	price := activity.PriceFor(b.TimeSlot)
	if b.PartySize > 0 {
		return price * b.PartySize
	}
	return price
}

func (h *UserBookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp := entities.AvailabilityResponse{
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
	}
	err := h.Service.CheckSlot(req.Date, req.TimeSlot, req.ActivityID)
	resp.Available = err == nil
	var slotErr *apperrors.SlotUnavailableError
	if errors.As(err, &slotErr) {
		resp.Reason = slotErr.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserBookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.Service.CreateBooking(req, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.ToBookingResponse(booking, quotedPrice(booking)))
}

func (h *UserBookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	booking, err := h.Service.GetBooking(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.ToBookingResponse(booking, quotedPrice(booking)))
}

func (h *UserBookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.CancelBooking(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking cancelled"})
}

// GetSchedule describes the bookable surface: slot grid, activity
// catalog, blocked dates, and the support phone.
func (h *UserBookingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.Service.ListBlockedDates()
	if err != nil {
		writeError(w, err)
		return
	}
	blockedResp := make([]entities.BlockedDateResponse, 0, len(blocked))
	for _, bd := range blocked {
		blockedResp = append(blockedResp, entities.BlockedDateResponse{Date: bd.Date, Reason: bd.Reason})
	}

	writeJSON(w, http.StatusOK, entities.ScheduleResponse{
		Slots:        h.Service.Schedule().Slots(),
		Activities:   entities.Catalog(),
		BlockedDates: blockedResp,
		SupportPhone: h.Settings.SupportPhone(),
	})
}

func (h *UserBookingHandler) GetSupportPhone(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"support_phone": h.Settings.SupportPhone()})
}

func (h *UserBookingHandler) ListBookingsForDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	activityID := r.URL.Query().Get("activity")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date query parameter required"})
		return
	}
	bookings, err := h.Service.ListBookingsForDate(date, activityID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	resp := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, entities.ToBookingResponse(&bookings[i], quotedPrice(&bookings[i])))
	}
	writeJSON(w, http.StatusOK, resp)
}
