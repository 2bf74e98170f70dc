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

type packageRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Package, error)
	FindByID(ctx context.Context, id string) (*models.Package, error)
	Create(ctx context.Context, pkg *models.Package) error
	Update(ctx context.Context, pkg *models.Package) error
	CreatePurchase(ctx context.Context, purchase *models.UserPackage) error
	PurchasedHours(ctx context.Context, userID string) (float64, error)
}

type packageReservationRepository interface {
	CompletedHours(ctx context.Context, clientID string) (float64, error)
}

// PackageRequest is the admin payload for creating or updating a catalog entry.
type PackageRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	// Hours may be zero for theory-only packages such as the code course.
	Hours       int     `json:"hours" validate:"gte=0"`
	Active      *bool   `json:"active"`
}

// PackageService manages the lesson package catalog and client hour balances.
type PackageService struct {
	packages     packageRepository
	reservations packageReservationRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPackageService builds a PackageService.
func NewPackageService(packages packageRepository, reservations packageReservationRepository, validate *validator.Validate, logger *zap.Logger) *PackageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageService{packages: packages, reservations: reservations, validator: validate, logger: logger}
}

// List returns catalog packages. Only admins see inactive entries.
func (s *PackageService) List(ctx context.Context, viewer Actor) ([]models.Package, error) {
	includeInactive := viewer.Role == models.RoleAdmin
	packages, err := s.packages.List(ctx, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list packages")
	}
	if packages == nil {
		packages = []models.Package{}
	}
	return packages, nil
}

// Create adds a catalog entry.
func (s *PackageService) Create(ctx context.Context, req PackageRequest) (*models.Package, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	pkg := &models.Package{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Hours:       req.Hours,
		Active:      true,
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}
	if err := s.packages.Create(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create package")
	}
	s.logger.Info("package created", zap.String("package_id", pkg.ID))
	return pkg, nil
}

// Update replaces a catalog entry's attributes.
func (s *PackageService) Update(ctx context.Context, id string, req PackageRequest) (*models.Package, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	pkg, err := s.packages.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}

	pkg.Name = req.Name
	pkg.Description = req.Description
	pkg.Price = req.Price
	pkg.Hours = req.Hours
	if req.Active != nil {
		pkg.Active = *req.Active
	}
	if err := s.packages.Update(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update package")
	}
	return pkg, nil
}

// Purchase records that the client bought the given package.
func (s *PackageService) Purchase(ctx context.Context, viewer Actor, packageID string) (*models.UserPackage, error) {
	pkg, err := s.packages.FindByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}
	if !pkg.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "package is no longer on sale")
	}

	purchase := &models.UserPackage{UserID: viewer.ID, PackageID: pkg.ID}
	if err := s.packages.CreatePurchase(ctx, purchase); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record purchase")
	}

	s.logger.Info("package purchased",
		zap.String("user_id", viewer.ID),
		zap.String("package_id", pkg.ID))

	return purchase, nil
}

// HoursBalance reports purchased versus completed driving hours for a client.
func (s *PackageService) HoursBalance(ctx context.Context, clientID string) (*models.HoursBalance, error) {
	purchased, err := s.packages.PurchasedHours(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum purchased hours")
	}
	completed, err := s.reservations.CompletedHours(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum completed hours")
	}
	return &models.HoursBalance{
		PurchasedHours: purchased,
		CompletedHours: completed,
		RemainingHours: purchased - completed,
	}, nil
}
