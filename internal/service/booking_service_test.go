package service

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questbooking/internal/db"
	"questbooking/internal/entities"
	apperrors "questbooking/internal/errors"
	"questbooking/internal/schedule"
)

type fakeBookingStore struct {
	bookings map[string]*db.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*db.Booking)}
}

func (f *fakeBookingStore) InsertBooking(b *db.Booking) error {
	// Mirrors the partial unique index on (date, time_slot) for
	// non-cancelled rows.
	for _, existing := range f.bookings {
		if existing.Date == b.Date && existing.TimeSlot == b.TimeSlot && existing.Occupies() {
			return apperrors.SlotUnavailable(b.Date, b.TimeSlot, apperrors.ReasonSlotOccupied)
		}
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingStore) UpdateBooking(b *db.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return apperrors.ErrNotFound
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeBookingStore) GetBookingByID(id string) (*db.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingStore) DeleteBooking(id string) error {
	if _, ok := f.bookings[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingStore) CountActiveAt(date, timeSlot, excludeID string) (int, error) {
	count := 0
	for _, b := range f.bookings {
		if b.Date == date && b.TimeSlot == timeSlot && b.Occupies() && b.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingStore) ListBookingsForDate(date, activityID string) ([]db.Booking, error) {
	var out []db.Booking
	for _, b := range f.bookings {
		if b.Date != date || !b.Occupies() {
			continue
		}
		if activityID != "" && b.ActivityID != activityID {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeSlot < out[j].TimeSlot })
	return out, nil
}

func (f *fakeBookingStore) ListBookings(date, activityID, status string) ([]db.Booking, error) {
	var out []db.Booking
	for _, b := range f.bookings {
		if date != "" && b.Date != date {
			continue
		}
		if activityID != "" && b.ActivityID != activityID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

type fakeBlockedStore struct {
	dates map[string]db.BlockedDate
}

func newFakeBlockedStore() *fakeBlockedStore {
	return &fakeBlockedStore{dates: make(map[string]db.BlockedDate)}
}

func (f *fakeBlockedStore) InsertBlockedDate(bd *db.BlockedDate) (bool, error) {
	if _, ok := f.dates[bd.Date]; ok {
		return false, nil
	}
	f.dates[bd.Date] = *bd
	return true, nil
}

func (f *fakeBlockedStore) DeleteBlockedDate(date string) (bool, error) {
	if _, ok := f.dates[date]; !ok {
		return false, nil
	}
	delete(f.dates, date)
	return true, nil
}

func (f *fakeBlockedStore) IsDateBlocked(date string) (bool, error) {
	_, ok := f.dates[date]
	return ok, nil
}

func (f *fakeBlockedStore) ListBlockedDates() ([]db.BlockedDate, error) {
	var out []db.BlockedDate
	for _, bd := range f.dates {
		out = append(out, bd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// fixedNow keeps every slot in the test calendar comfortably bookable
// unless a test moves the clock.
var fixedNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*BookingService, *fakeBookingStore, *fakeBlockedStore) {
	t.Helper()
	bookings := newFakeBookingStore()
	blocked := newFakeBlockedStore()
	sched := schedule.New(schedule.DefaultSlots, time.Hour, time.UTC)
	svc := NewBookingService(bookings, blocked, sched, NewNotifier(0), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, bookings, blocked
}

func makeRequest(date, slot, activity, name string) entities.CreateBookingRequest {
	return entities.CreateBookingRequest{
		ActivityID:    activity,
		Date:          date,
		TimeSlot:      slot,
		CustomerName:  name,
		CustomerPhone: "+7 (912) 345-67-89",
	}
}

func TestCreateBookingRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := makeRequest("2024-09-21", "18:00", "danger", "Ivan")
	req.PartySize = 4
	req.Notes = "birthday"

	created, err := svc.CreateBooking(req, false)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, db.StatusPending, created.Status)

	listed, err := svc.ListBookingsForDate("2024-09-21", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "Ivan", listed[0].CustomerName)
	assert.Equal(t, 4, listed[0].PartySize)
	assert.Equal(t, "birthday", listed[0].Notes)
}

func TestVenueWideExclusivity(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)

	// Another activity at the same slot still conflicts: the venue hosts
	// one activity at a time.
	_, err = svc.CreateBooking(makeRequest("2024-09-21", "18:00", "artifact", "Petr"), false)
	require.Error(t, err)
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonSlotOccupied, slotErr.Reason)
	assert.True(t, apperrors.IsSlotUnavailable(err))

	// A different slot on the same day is fine.
	_, err = svc.CreateBooking(makeRequest("2024-09-21", "19:30", "artifact", "Petr"), false)
	assert.NoError(t, err)
}

func TestNoDoubleOccupancyAcrossSequence(t *testing.T) {
	svc, store, _ := newTestService(t)

	first, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)
	_, err = svc.CreateBooking(makeRequest("2024-09-21", "18:00", "artifact", "Petr"), false)
	require.Error(t, err)

	require.NoError(t, svc.CancelBooking(first.ID))

	second, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "artifact", "Petr"), false)
	require.NoError(t, err)

	slot := "18:00"
	newSlot := "21:00"
	_, err = svc.UpdateBooking(second.ID, entities.BookingPatch{TimeSlot: &newSlot})
	require.NoError(t, err)

	occupied := 0
	for _, b := range store.bookings {
		if b.Date == "2024-09-21" && b.TimeSlot == slot && b.Occupies() {
			occupied++
		}
	}
	assert.LessOrEqual(t, occupied, 1)
}

func TestBlockedDateUnavailableForEverySlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	count, err := svc.BlockDates([]string{"2024-09-20"}, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, slot := range schedule.DefaultSlots {
		assert.False(t, svc.IsSlotAvailable("2024-09-20", slot, "danger"), "slot %s", slot)
	}
	err = svc.CheckSlot("2024-09-20", "15:00", "danger")
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonDateBlocked, slotErr.Reason)
}

func TestBlockDatesIdempotent(t *testing.T) {
	svc, _, blocked := newTestService(t)

	count, err := svc.BlockDates([]string{"2024-09-20"}, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.BlockDates([]string{"2024-09-20"}, "maintenance again")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.Len(t, blocked.dates, 1)
}

func TestBlockDatesBatchCountsOnlyNew(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BlockDates([]string{"2024-09-20"}, "maintenance")
	require.NoError(t, err)

	count, err := svc.BlockDates([]string{"2024-09-20", "2024-09-21", "2024-09-22"}, "holidays")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUnblockDate(t *testing.T) {
	svc, _, blocked := newTestService(t)

	removed, err := svc.UnblockDate("2024-09-20")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, blocked.dates)

	_, err = svc.BlockDates([]string{"2024-09-20"}, "maintenance")
	require.NoError(t, err)

	removed, err = svc.UnblockDate("2024-09-20")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.True(t, svc.IsSlotAvailable("2024-09-20", "15:00", "danger"))
}

func TestLeadTimeWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time {
		return time.Date(2024, 9, 21, 20, 30, 0, 0, time.UTC)
	}

	// 21:00 starts 30 minutes out, inside the one-hour lead window.
	assert.False(t, svc.IsSlotAvailable("2024-09-21", "21:00", "danger"))
	err := svc.CheckSlot("2024-09-21", "21:00", "danger")
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonLeadTime, slotErr.Reason)

	// 22:30 is exactly at now+1h: the boundary itself is unavailable.
	svc.now = func() time.Time {
		return time.Date(2024, 9, 21, 21, 30, 0, 0, time.UTC)
	}
	assert.False(t, svc.IsSlotAvailable("2024-09-21", "22:30", "danger"))

	// One second of headroom beyond the lead time and the slot is open.
	svc.now = func() time.Time {
		return time.Date(2024, 9, 21, 21, 29, 59, 0, time.UTC)
	}
	assert.True(t, svc.IsSlotAvailable("2024-09-21", "22:30", "danger"))

	// Past slots never come back.
	svc.now = func() time.Time {
		return time.Date(2024, 9, 22, 9, 0, 0, 0, time.UTC)
	}
	assert.False(t, svc.IsSlotAvailable("2024-09-21", "22:30", "danger"))
}

func TestLeadTimeRecheckedAtWriteTime(t *testing.T) {
	svc, _, _ := newTestService(t)

	now := time.Date(2024, 9, 21, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	require.True(t, svc.IsSlotAvailable("2024-09-21", "16:30", "danger"))

	// The clock advances between render and submit; the stale render
	// must not win.
	now = time.Date(2024, 9, 21, 16, 0, 0, 0, time.UTC)
	_, err := svc.CreateBooking(makeRequest("2024-09-21", "16:30", "danger", "Ivan"), false)
	require.Error(t, err)
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonLeadTime, slotErr.Reason)
}

func TestCreateOnBlockedDateRefused(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BlockDates([]string{"2024-09-20"}, "closed")
	require.NoError(t, err)

	_, err = svc.CreateBooking(makeRequest("2024-09-20", "15:00", "danger", "Ivan"), false)
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonDateBlocked, slotErr.Reason)
}

func TestBlockingDoesNotCancelExistingBookings(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)

	_, err = svc.BlockDates([]string{"2024-09-21"}, "private event")
	require.NoError(t, err)

	got, err := svc.GetBooking(created.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, got.Status)

	listed, err := svc.ListBookingsForDate("2024-09-21", "")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAdminCreateConfirmed(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := makeRequest("2024-09-21", "18:00", "danger", "Ivan")
	req.Status = db.StatusConfirmed

	// Customer flow ignores the requested status.
	created, err := svc.CreateBooking(req, false)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, created.Status)
	require.NoError(t, svc.DeleteBooking(created.ID))

	created, err = svc.CreateBooking(req, true)
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, created.Status)
}

func TestConfirmBookingMergesFinalFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmBooking(created.ID, entities.ConfirmationFields{
		FullPayment: 4500,
		PartySize:   5,
		TeaZone:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, confirmed.Status)
	assert.Equal(t, 4500, confirmed.FullPayment)
	assert.Equal(t, 5, confirmed.PartySize)
	assert.True(t, confirmed.TeaZone)
	assert.Equal(t, "Ivan", confirmed.CustomerName)
	assert.Equal(t, "18:00", confirmed.TimeSlot)
}

func TestConfirmMissingBooking(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ConfirmBooking("nope", entities.ConfirmationFields{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestUpdateWithoutSlotChangeSkipsAvailabilityCheck(t *testing.T) {
	svc, _, _ := newTestService(t)

	// With the slot already inside the lead window, a same-slot edit
	// must still succeed.
	created, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2024, 9, 21, 17, 45, 0, 0, time.UTC)
	}

	status := db.StatusConfirmed
	payment := 4500
	updated, err := svc.UpdateBooking(created.ID, entities.BookingPatch{
		Status:      &status,
		FullPayment: &payment,
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, updated.Status)
	assert.Equal(t, 4500, updated.FullPayment)
}

func TestUpdateMovingSlotChecksAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)
	_, err = svc.CreateBooking(makeRequest("2024-09-21", "19:30", "artifact", "Petr"), false)
	require.NoError(t, err)

	taken := "19:30"
	_, err = svc.UpdateBooking(first.ID, entities.BookingPatch{TimeSlot: &taken})
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonSlotOccupied, slotErr.Reason)

	// Moving within the same slot's date excludes the booking's own
	// occupancy, so re-saving its current slot is not a conflict.
	same := "18:00"
	date := "2024-09-21"
	updated, err := svc.UpdateBooking(first.ID, entities.BookingPatch{TimeSlot: &same, Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "18:00", updated.TimeSlot)

	free := "21:00"
	updated, err = svc.UpdateBooking(first.ID, entities.BookingPatch{TimeSlot: &free})
	require.NoError(t, err)
	assert.Equal(t, "21:00", updated.TimeSlot)
}

func TestCancelFreesSlotImmediately(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)
	require.False(t, svc.IsSlotAvailable("2024-09-21", "18:00", "artifact"))

	require.NoError(t, svc.CancelBooking(created.ID))
	assert.True(t, svc.IsSlotAvailable("2024-09-21", "18:00", "artifact"))

	// Cancelled bookings drop out of date listings.
	listed, err := svc.ListBookingsForDate("2024-09-21", "")
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Cancelling again is a no-op, not an error.
	assert.NoError(t, svc.CancelBooking(created.ID))

	assert.ErrorIs(t, svc.CancelBooking("missing"), apperrors.ErrNotFound)
}

func TestListBookingsForDateOrderedBySlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, slot := range []string{"21:00", "12:00", "16:30"} {
		_, err := svc.CreateBooking(makeRequest("2024-09-21", slot, "danger", "Ivan"), false)
		require.NoError(t, err)
	}

	listed, err := svc.ListBookingsForDate("2024-09-21", "")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "12:00", listed[0].TimeSlot)
	assert.Equal(t, "16:30", listed[1].TimeSlot)
	assert.Equal(t, "21:00", listed[2].TimeSlot)
}

func TestListBookingsForDateFiltersByActivity(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateBooking(makeRequest("2024-09-21", "12:00", "danger", "Ivan"), false)
	require.NoError(t, err)
	_, err = svc.CreateBooking(makeRequest("2024-09-21", "15:00", "artifact", "Petr"), false)
	require.NoError(t, err)

	listed, err := svc.ListBookingsForDate("2024-09-21", "artifact")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Petr", listed[0].CustomerName)

	// Absence yields an empty sequence, never an error.
	listed, err = svc.ListBookingsForDate("2024-12-31", "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUnknownSlotRefused(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateBooking(makeRequest("2024-09-21", "14:15", "danger", "Ivan"), false)
	var slotErr *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, apperrors.ReasonUnknownSlot, slotErr.Reason)

	assert.False(t, svc.IsSlotAvailable("not-a-date", "18:00", "danger"))
}

func TestMutationsPublishChangeSignals(t *testing.T) {
	bookings := newFakeBookingStore()
	blocked := newFakeBlockedStore()
	sched := schedule.New(schedule.DefaultSlots, time.Hour, time.UTC)
	notifier := NewNotifier(10 * time.Millisecond)
	svc := NewBookingService(bookings, blocked, sched, notifier, nil)
	svc.now = func() time.Time { return fixedNow }

	bookingsCh, cancelBookings := notifier.Subscribe(TopicBookingsChanged)
	defer cancelBookings()
	blockedCh, cancelBlocked := notifier.Subscribe(TopicBlockedDatesChanged)
	defer cancelBlocked()

	_, err := svc.CreateBooking(makeRequest("2024-09-21", "18:00", "danger", "Ivan"), false)
	require.NoError(t, err)
	_, err = svc.BlockDates([]string{"2024-09-22"}, "closed")
	require.NoError(t, err)

	select {
	case topic := <-bookingsCh:
		assert.Equal(t, TopicBookingsChanged, topic)
	case <-time.After(time.Second):
		t.Fatal("no bookings-changed signal")
	}
	select {
	case topic := <-blockedCh:
		assert.Equal(t, TopicBlockedDatesChanged, topic)
	case <-time.After(time.Second):
		t.Fatal("no blocked-dates-changed signal")
	}
}
