package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

const packageColumns = "id, name, description, price, hours, active, created_at, updated_at"

// PackageRepository provides persistence for the lesson package catalog.
type PackageRepository struct {
	db *sqlx.DB
}

// NewPackageRepository creates a new package repository.
func NewPackageRepository(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// List returns catalog packages; includeInactive exposes retired offers to admins.
func (r *PackageRepository) List(ctx context.Context, includeInactive bool) ([]models.Package, error) {
	query := fmt.Sprintf("SELECT %s FROM packages", packageColumns)
	if !includeInactive {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY price ASC"
	var packages []models.Package
	if err := r.db.SelectContext(ctx, &packages, query); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

// FindByID loads a package by id.
func (r *PackageRepository) FindByID(ctx context.Context, id string) (*models.Package, error) {
	query := fmt.Sprintf("SELECT %s FROM packages WHERE id = $1", packageColumns)
	var pkg models.Package
	if err := r.db.GetContext(ctx, &pkg, query, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// Create inserts a new package.
func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now

	const query = `INSERT INTO packages (id, name, description, price, hours, active, created_at, updated_at)
		VALUES (:id, :name, :description, :price, :hours, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pkg); err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

// Update modifies an existing package.
func (r *PackageRepository) Update(ctx context.Context, pkg *models.Package) error {
	pkg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE packages SET name = :name, description = :description, price = :price, hours = :hours, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pkg); err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	return nil
}

// CreatePurchase records that a client bought a package.
func (r *PackageRepository) CreatePurchase(ctx context.Context, purchase *models.UserPackage) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = time.Now().UTC()
	}

	const query = `INSERT INTO user_packages (id, user_id, package_id, purchase_date)
		VALUES (:id, :user_id, :package_id, :purchase_date)`
	if _, err := r.db.NamedExecContext(ctx, query, purchase); err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

// PurchasedHours sums the driving hours a client has bought.
func (r *PackageRepository) PurchasedHours(ctx context.Context, userID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(p.hours), 0) FROM user_packages up JOIN packages p ON p.id = up.package_id WHERE up.user_id = $1`
	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, userID); err != nil {
		return 0, fmt.Errorf("sum purchased hours: %w", err)
	}
	return hours, nil
}
