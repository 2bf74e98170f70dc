package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
)

type registryUserRepository interface {
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type registryVehicleRepository interface {
	List(ctx context.Context) ([]models.Vehicle, error)
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Deactivate(ctx context.Context, id string) error
}

// VehicleRequest is the admin payload for fleet changes.
type VehicleRequest struct {
	Model        string              `json:"model" validate:"required"`
	Transmission models.Transmission `json:"transmission" validate:"required,oneof=MANUAL AUTOMATIC"`
	Active       *bool               `json:"active"`
}

// RegistryService exposes the instructor roster, the vehicle fleet and the
// admin account directory. Roster and fleet feed slot generation, so fleet
// changes affect future availability only.
type RegistryService struct {
	users     registryUserRepository
	vehicles  registryVehicleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistryService builds a RegistryService.
func NewRegistryService(users registryUserRepository, vehicles registryVehicleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{users: users, vehicles: vehicles, cache: cache, validator: validate, logger: logger}
}

// Instructors returns the active instructor roster.
func (s *RegistryService) Instructors(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.users.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	if instructors == nil {
		instructors = []models.Instructor{}
	}
	return instructors, nil
}

// Users returns portal accounts for the admin user directory, filtered and
// paginated.
func (s *RegistryService) Users(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Vehicles returns the full fleet, active and retired.
func (s *RegistryService) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vehicles")
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// CreateVehicle adds a vehicle to the fleet.
func (s *RegistryService) CreateVehicle(ctx context.Context, req VehicleRequest) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}

	vehicle := &models.Vehicle{
		Model:        req.Model,
		Transmission: req.Transmission,
		Active:       true,
	}
	if req.Active != nil {
		vehicle.Active = *req.Active
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create vehicle")
	}

	s.invalidateAvailability(ctx)
	s.logger.Info("vehicle created", zap.String("vehicle_id", vehicle.ID))
	return vehicle, nil
}

// UpdateVehicle replaces a vehicle's attributes.
func (s *RegistryService) UpdateVehicle(ctx context.Context, id string, req VehicleRequest) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}

	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}

	vehicle.Model = req.Model
	vehicle.Transmission = req.Transmission
	if req.Active != nil {
		vehicle.Active = *req.Active
	}
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update vehicle")
	}

	s.invalidateAvailability(ctx)
	return vehicle, nil
}

// RetireVehicle removes a vehicle from future slot assignment. Historical
// reservations keep their vehicle reference.
func (s *RegistryService) RetireVehicle(ctx context.Context, id string) error {
	if _, err := s.vehicles.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle")
	}
	if err := s.vehicles.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retire vehicle")
	}

	s.invalidateAvailability(ctx)
	s.logger.Info("vehicle retired", zap.String("vehicle_id", id))
	return nil
}

// Fleet changes shift deterministic vehicle assignment for every day, so all
// cached day snapshots are dropped.
func (s *RegistryService) invalidateAvailability(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "avail:*"); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.Error(err))
	}
}
