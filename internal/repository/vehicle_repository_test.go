package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoecole-dijon/portal-api/internal/models"
)

func vehicleRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "model", "transmission", "active", "created_at", "updated_at"}).
		AddRow("veh-1", "Peugeot 208", "MANUAL", true, now, now).
		AddRow("veh-2", "Renault Clio", "MANUAL", true, now, now)
}

func TestVehicleRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, model, transmission, active, created_at, updated_at FROM vehicles WHERE active = TRUE ORDER BY id ASC")).
		WillReturnRows(vehicleRows())

	vehicles, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, "veh-1", vehicles[0].ID)
	assert.Equal(t, models.TransmissionManual, vehicles[0].Transmission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectExec("INSERT INTO vehicles").
		WithArgs(sqlmock.AnyArg(), "VW Golf", "AUTOMATIC", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	vehicle := &models.Vehicle{Model: "VW Golf", Transmission: models.TransmissionAutomatic, Active: true}
	require.NoError(t, repo.Create(context.Background(), vehicle))
	assert.NotEmpty(t, vehicle.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectExec("UPDATE vehicles SET active = FALSE").
		WithArgs("veh-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "veh-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
