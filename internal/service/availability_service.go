package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
)

type availabilityReservationRepository interface {
	ListActiveByDate(ctx context.Context, date string) ([]models.ReservationDetail, error)
}

// AvailabilityService resolves the per-date availability view: the generated
// candidate set minus slots occupied by active reservations, shaped by the
// viewer's role policy. It never mutates state.
type AvailabilityService struct {
	slots        *SlotService
	reservations availabilityReservationRepository
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
	clock        func() time.Time
}

// NewAvailabilityService instantiates AvailabilityService. A nil clock
// defaults to time.Now.
func NewAvailabilityService(slots *SlotService, reservations availabilityReservationRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger, clock func() time.Time) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &AvailabilityService{slots: slots, reservations: reservations, cache: cache, cacheTTL: cacheTTL, logger: logger, clock: clock}
}

// AvailabilityCacheKey is the cache key for a day's raw snapshot.
func AvailabilityCacheKey(date string) string {
	return fmt.Sprintf("avail:%s", date)
}

// ForDate returns the availability view for a day as seen by the given role.
// All roles share one cached day snapshot; role shaping happens after the
// cache read so views stay consistent across roles.
func (s *AvailabilityService) ForDate(ctx context.Context, date string, role models.UserRole) ([]models.AvailabilitySlot, error) {
	snapshot, err := s.daySnapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	policy := models.PolicyForRole(role)
	now := s.clock()

	view := make([]models.AvailabilitySlot, 0, len(snapshot))
	for _, slot := range snapshot {
		startAt, err := StartAt(slot.Date, slot.StartTime)
		if err != nil {
			return nil, err
		}
		slot.Past = !startAt.After(now)

		if policy.CanSeeOccupant {
			view = append(view, slot)
			continue
		}

		// Clients only see slots they can still book.
		if slot.Booked || slot.Past {
			continue
		}
		slot.Occupant = nil
		view = append(view, slot)
	}

	return view, nil
}

// daySnapshot builds (or loads from cache) the full generated slot set for a
// day annotated with booking state.
func (s *AvailabilityService) daySnapshot(ctx context.Context, date string) ([]models.AvailabilitySlot, error) {
	key := AvailabilityCacheKey(date)
	var cached []models.AvailabilitySlot
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	slots, err := s.slots.Generate(ctx, date)
	if err != nil {
		return nil, err
	}

	active, err := s.reservations.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservations")
	}

	occupied := make(map[string]models.ReservationDetail, len(active))
	for _, res := range active {
		occupied[res.SlotKey()] = res
	}

	snapshot := make([]models.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		entry := models.AvailabilitySlot{Slot: slot}
		if res, ok := occupied[slot.Key()]; ok {
			entry.Booked = true
			entry.Occupant = &models.Occupant{
				ReservationID: res.ID,
				ClientID:      res.ClientID,
				ClientName:    res.ClientName,
			}
		}
		snapshot = append(snapshot, entry)
	}

	if err := s.cache.Set(ctx, key, snapshot, s.cacheTTL); err != nil {
		s.logger.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}

	return snapshot, nil
}
