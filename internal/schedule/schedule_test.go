package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2024-09-21")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-21", date)

	_, err = ParseDate("21.09.2024")
	assert.Error(t, err)
	_, err = ParseDate("2024-09-21T18:00:00Z")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestSlotInstantUsesVenueTimezone(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	s := New(DefaultSlots, time.Hour, loc)

	instant, err := s.SlotInstant("2024-09-21", "18:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 21, 18, 0, 0, 0, loc), instant)
	assert.Equal(t, time.Date(2024, 9, 21, 15, 0, 0, 0, time.UTC).Unix(), instant.Unix())

	_, err = s.SlotInstant("2024-09-21", "half past six")
	assert.Error(t, err)
}

func TestWithinLeadWindowBoundary(t *testing.T) {
	s := New(DefaultSlots, time.Hour, time.UTC)
	now := time.Date(2024, 9, 21, 21, 30, 0, 0, time.UTC)

	within, err := s.WithinLeadWindow("2024-09-21", "22:00", now)
	require.NoError(t, err)
	assert.True(t, within)

	// Exactly at now+leadTime: strict inequality makes it unavailable.
	within, err = s.WithinLeadWindow("2024-09-21", "22:30", now)
	require.NoError(t, err)
	assert.True(t, within)

	within, err = s.WithinLeadWindow("2024-09-21", "22:30", now.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, within)

	// A slot well outside the window is open.
	within, err = s.WithinLeadWindow("2024-09-22", "12:00", now)
	require.NoError(t, err)
	assert.False(t, within)
}

func TestHasSlotAndOrder(t *testing.T) {
	s := New(DefaultSlots, time.Hour, time.UTC)

	assert.True(t, s.HasSlot("12:00"))
	assert.True(t, s.HasSlot("22:30"))
	assert.False(t, s.HasSlot("14:15"))
	assert.False(t, s.HasSlot(""))

	assert.Equal(t, 0, s.SlotOrder("12:00"))
	assert.Equal(t, 7, s.SlotOrder("22:30"))
	assert.Equal(t, len(DefaultSlots), s.SlotOrder("99:99"))
}

func TestNewDefaults(t *testing.T) {
	s := New(nil, 30*time.Minute, nil)
	assert.Equal(t, DefaultSlots, s.Slots())
	assert.Equal(t, 30*time.Minute, s.LeadTime())
}

func TestSlotsReturnsCopy(t *testing.T) {
	s := New(DefaultSlots, time.Hour, time.UTC)
	slots := s.Slots()
	slots[0] = "00:00"
	assert.Equal(t, "12:00", s.Slots()[0])
}
