package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

const vehicleColumns = "id, model, transmission, active, created_at, updated_at"

// VehicleRepository provides persistence for the vehicle registry.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// ListActive returns active vehicles ordered by id. The ordering is part of
// the deterministic vehicle assignment contract and must stay stable.
func (r *VehicleRepository) ListActive(ctx context.Context) ([]models.Vehicle, error) {
	query := fmt.Sprintf("SELECT %s FROM vehicles WHERE active = TRUE ORDER BY id ASC", vehicleColumns)
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query); err != nil {
		return nil, fmt.Errorf("list active vehicles: %w", err)
	}
	return vehicles, nil
}

// List returns all vehicles ordered by id.
func (r *VehicleRepository) List(ctx context.Context) ([]models.Vehicle, error) {
	query := fmt.Sprintf("SELECT %s FROM vehicles ORDER BY id ASC", vehicleColumns)
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// FindByID loads a vehicle by id.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	query := fmt.Sprintf("SELECT %s FROM vehicles WHERE id = $1", vehicleColumns)
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, query, id); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// Create inserts a new vehicle record.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = now
	}
	vehicle.UpdatedAt = now

	const query = `INSERT INTO vehicles (id, model, transmission, active, created_at, updated_at)
		VALUES (:id, :model, :transmission, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

// Update modifies an existing vehicle record.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vehicles SET model = :model, transmission = :transmission, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// Deactivate removes a vehicle from the assignable pool.
func (r *VehicleRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE vehicles SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate vehicle: %w", err)
	}
	return nil
}
