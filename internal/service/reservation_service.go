package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	"github.com/autoecole-dijon/portal-api/internal/repository"
	"github.com/autoecole-dijon/portal-api/pkg/config"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role models.UserRole
}

type reservationRepository interface {
	Insert(ctx context.Context, res *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	ListForUser(ctx context.Context, userID string) ([]models.ReservationDetail, error)
	Cancel(ctx context.Context, id, byUserID string, at time.Time) (bool, error)
	PromoteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// ReservationService is the reservation ledger: it owns the booking
// lifecycle and is the only writer of reservation state.
type ReservationService struct {
	repo      reservationRepository
	slots     *SlotService
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.LessonsConfig
	clock     func() time.Time
}

// NewReservationService instantiates ReservationService. A nil clock defaults
// to time.Now.
func NewReservationService(repo reservationRepository, slots *SlotService, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg config.LessonsConfig, clock func() time.Time) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.CancelLeadTime <= 0 {
		cfg.CancelLeadTime = 24 * time.Hour
	}
	return &ReservationService{repo: repo, slots: slots, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg, clock: clock}
}

// Book reserves a slot for a client. The availability check and the insert
// are a single conditional statement in the repository, so a lost race
// surfaces here as ErrSlotUnavailable rather than a double booking.
func (s *ReservationService) Book(ctx context.Context, clientID string, req models.BookSlotRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	slot, err := s.slots.Resolve(ctx, req.Date, req.StartTime, req.InstructorID)
	if err != nil {
		return nil, err
	}
	if slot.VehicleID == "" {
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "no vehicle available for this slot")
	}

	startAt, err := StartAt(slot.Date, slot.StartTime)
	if err != nil {
		return nil, err
	}
	if !startAt.After(s.clock()) {
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot start time has already passed")
	}

	reservation := &models.Reservation{
		ClientID:     clientID,
		InstructorID: slot.InstructorID,
		VehicleID:    slot.VehicleID,
		LessonDate:   slot.Date,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
	}

	if err := s.repo.Insert(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordBooking(BookingResultConflict)
			return nil, appErrors.ErrSlotUnavailable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book slot")
	}

	s.metrics.RecordBooking(BookingResultConfirmed)
	s.invalidateAvailability(ctx, slot.Date)

	s.logger.Info("slot booked",
		zap.String("reservation_id", reservation.ID),
		zap.String("client_id", clientID),
		zap.String("slot", slot.ID),
	)

	return reservation, nil
}

// Cancel voids a scheduled reservation. Only the reservation's client, its
// instructor, or an admin may cancel, and only while the configured lead time
// before the lesson start still holds.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string, actor Actor) error {
	now := s.clock()
	if _, err := s.repo.PromoteElapsed(ctx, now); err != nil {
		s.logger.Warn("lazy completion failed", zap.Error(err))
	}

	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}

	if !s.canCancel(reservation, actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to cancel this reservation")
	}

	if reservation.Status != models.ReservationScheduled {
		return appErrors.Clone(appErrors.ErrConflict, "only scheduled lessons can be cancelled")
	}

	startAt, err := StartAt(reservation.LessonDate, reservation.StartTime)
	if err != nil {
		return err
	}
	if now.Add(s.cfg.CancelLeadTime).After(startAt) {
		return appErrors.ErrTooLateToCancel
	}

	ok, err := s.repo.Cancel(ctx, reservationID, actor.ID, now)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrConflict, "reservation is no longer cancellable")
	}

	s.invalidateAvailability(ctx, reservation.LessonDate)

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", reservationID),
		zap.String("cancelled_by", actor.ID),
	)

	return nil
}

// ListForUser returns the user's reservations (as client or instructor)
// ascending by date and start time, after lazily promoting elapsed lessons.
func (s *ReservationService) ListForUser(ctx context.Context, userID string) ([]models.ReservationDetail, error) {
	if _, err := s.repo.PromoteElapsed(ctx, s.clock()); err != nil {
		s.logger.Warn("lazy completion failed", zap.Error(err))
	}

	reservations, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	return reservations, nil
}

func (s *ReservationService) canCancel(res *models.Reservation, actor Actor) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.ID == res.ClientID || actor.ID == res.InstructorID
}

func (s *ReservationService) invalidateAvailability(ctx context.Context, date string) {
	if err := s.cache.Invalidate(ctx, AvailabilityCacheKey(date)); err != nil {
		s.logger.Warn("availability invalidation failed", zap.String("date", date), zap.Error(err))
	}
}
