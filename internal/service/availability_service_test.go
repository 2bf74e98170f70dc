package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

type mockAvailabilityReservationRepo struct {
	active []models.ReservationDetail
	err    error
}

func (m *mockAvailabilityReservationRepo) ListActiveByDate(ctx context.Context, date string) ([]models.ReservationDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.active, nil
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newAvailabilityFixture(active []models.ReservationDetail, now time.Time) *AvailabilityService {
	instructors, vehicles := testRegistry()
	slots := NewSlotService(instructors, vehicles, defaultLessonsConfig(), zap.NewNop())
	reservations := &mockAvailabilityReservationRepo{active: active}
	return NewAvailabilityService(slots, reservations, disabledCache(), time.Minute, zap.NewNop(), fixedClock(now))
}

func TestAvailabilityClientSeesOnlyBookable(t *testing.T) {
	booked := models.ReservationDetail{
		Reservation: models.Reservation{
			ID:           "res-1",
			ClientID:     "client-1",
			InstructorID: "ins-1",
			LessonDate:   "2030-05-20",
			StartTime:    "10:00",
			EndTime:      "11:00",
			Status:       models.ReservationScheduled,
		},
		ClientName: "Luc Moreau",
	}
	now := time.Date(2030, 5, 19, 12, 0, 0, 0, time.Local)
	svc := newAvailabilityFixture([]models.ReservationDetail{booked}, now)

	view, err := svc.ForDate(context.Background(), "2030-05-20", models.RoleClient)
	require.NoError(t, err)

	// 22 generated slots, one booked, none past.
	assert.Len(t, view, 21)
	for _, slot := range view {
		assert.False(t, slot.Booked)
		assert.False(t, slot.Past)
		assert.Nil(t, slot.Occupant)
		assert.NotEqual(t, booked.SlotKey(), slot.Key())
	}
}

func TestAvailabilityClientSkipsPastSlots(t *testing.T) {
	// Mid-day clock: slots at or before 12:00 have started.
	now := time.Date(2030, 5, 20, 12, 0, 0, 0, time.Local)
	svc := newAvailabilityFixture(nil, now)

	view, err := svc.ForDate(context.Background(), "2030-05-20", models.RoleClient)
	require.NoError(t, err)

	// 13:00 through 18:00 remain, for two instructors.
	assert.Len(t, view, 12)
	for _, slot := range view {
		assert.True(t, slot.StartTime > "12:00")
	}
}

func TestAvailabilityInstructorSeesOccupant(t *testing.T) {
	booked := models.ReservationDetail{
		Reservation: models.Reservation{
			ID:           "res-1",
			ClientID:     "client-1",
			InstructorID: "ins-2",
			LessonDate:   "2030-05-20",
			StartTime:    "14:00",
			EndTime:      "15:00",
			Status:       models.ReservationScheduled,
		},
		ClientName: "Luc Moreau",
	}
	now := time.Date(2030, 5, 19, 12, 0, 0, 0, time.Local)
	svc := newAvailabilityFixture([]models.ReservationDetail{booked}, now)

	view, err := svc.ForDate(context.Background(), "2030-05-20", models.RoleInstructor)
	require.NoError(t, err)

	// Instructors see the full grid, occupied slots included.
	assert.Len(t, view, 22)

	var found bool
	for _, slot := range view {
		if slot.Key() == booked.SlotKey() {
			found = true
			assert.True(t, slot.Booked)
			require.NotNil(t, slot.Occupant)
			assert.Equal(t, "res-1", slot.Occupant.ReservationID)
			assert.Equal(t, "Luc Moreau", slot.Occupant.ClientName)
		}
	}
	assert.True(t, found)
}

func TestAvailabilityAdminSeesPastSlots(t *testing.T) {
	now := time.Date(2030, 5, 20, 12, 0, 0, 0, time.Local)
	svc := newAvailabilityFixture(nil, now)

	view, err := svc.ForDate(context.Background(), "2030-05-20", models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, view, 22)

	var pastCount int
	for _, slot := range view {
		if slot.Past {
			pastCount++
		}
	}
	// 08:00 through 12:00 have started for both instructors.
	assert.Equal(t, 10, pastCount)
}

func TestAvailabilityInvalidDate(t *testing.T) {
	now := time.Date(2030, 5, 19, 12, 0, 0, 0, time.Local)
	svc := newAvailabilityFixture(nil, now)

	_, err := svc.ForDate(context.Background(), "someday", models.RoleClient)
	require.Error(t, err)
}
