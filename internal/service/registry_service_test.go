package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
)

type mockFleetRepo struct {
	vehicles map[string]*models.Vehicle
}

func newMockFleetRepo() *mockFleetRepo {
	return &mockFleetRepo{vehicles: make(map[string]*models.Vehicle)}
}

func (m *mockFleetRepo) List(ctx context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range m.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (m *mockFleetRepo) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFleetRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = "veh-new"
	}
	cp := *vehicle
	m.vehicles[vehicle.ID] = &cp
	return nil
}

func (m *mockFleetRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	cp := *vehicle
	m.vehicles[vehicle.ID] = &cp
	return nil
}

func (m *mockFleetRepo) Deactivate(ctx context.Context, id string) error {
	m.vehicles[id].Active = false
	return nil
}

type mockRosterRepo struct {
	users      []models.User
	lastFilter models.UserFilter
}

func (m *mockRosterRepo) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	return []models.Instructor{{ID: "ins-1", FullName: "Marie Dupont"}}, nil
}

func (m *mockRosterRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	return m.users, len(m.users), nil
}

func TestRegistryCreateVehicle(t *testing.T) {
	fleet := newMockFleetRepo()
	svc := NewRegistryService(&mockRosterRepo{}, fleet, nil, nil, zap.NewNop())

	vehicle, err := svc.CreateVehicle(context.Background(), VehicleRequest{Model: "Peugeot 208", Transmission: models.TransmissionManual})
	require.NoError(t, err)
	assert.True(t, vehicle.Active)
	assert.Len(t, fleet.vehicles, 1)
}

func TestRegistryCreateVehicleBadTransmission(t *testing.T) {
	svc := NewRegistryService(&mockRosterRepo{}, newMockFleetRepo(), nil, nil, zap.NewNop())

	_, err := svc.CreateVehicle(context.Background(), VehicleRequest{Model: "Peugeot 208", Transmission: "TIPTRONIC"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistryRetireVehicle(t *testing.T) {
	fleet := newMockFleetRepo()
	fleet.vehicles["veh-1"] = &models.Vehicle{ID: "veh-1", Model: "Renault Clio", Transmission: models.TransmissionManual, Active: true}
	svc := NewRegistryService(&mockRosterRepo{}, fleet, nil, nil, zap.NewNop())

	require.NoError(t, svc.RetireVehicle(context.Background(), "veh-1"))
	assert.False(t, fleet.vehicles["veh-1"].Active)

	err := svc.RetireVehicle(context.Background(), "veh-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistryUsers(t *testing.T) {
	role := models.RoleClient
	roster := &mockRosterRepo{users: []models.User{
		{ID: "u1", Email: "luc@example.com", FullName: "Luc Moreau", Role: models.RoleClient},
	}}
	svc := NewRegistryService(roster, newMockFleetRepo(), nil, nil, zap.NewNop())

	users, pagination, err := svc.Users(context.Background(), models.UserFilter{Role: &role, Search: "luc"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Luc Moreau", users[0].FullName)
	require.NotNil(t, roster.lastFilter.Role)
	assert.Equal(t, models.RoleClient, *roster.lastFilter.Role)
	assert.Equal(t, "luc", roster.lastFilter.Search)

	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestRegistryUsersEmpty(t *testing.T) {
	svc := NewRegistryService(&mockRosterRepo{}, newMockFleetRepo(), nil, nil, zap.NewNop())

	users, _, err := svc.Users(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestRegistryInstructors(t *testing.T) {
	svc := NewRegistryService(&mockRosterRepo{}, newMockFleetRepo(), nil, nil, zap.NewNop())

	roster, err := svc.Instructors(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Marie Dupont", roster[0].FullName)
}
