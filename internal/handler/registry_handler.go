package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoecole-dijon/portal-api/internal/models"
	"github.com/autoecole-dijon/portal-api/internal/service"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
	"github.com/autoecole-dijon/portal-api/pkg/response"
)

// RegistryHandler serves the instructor roster, vehicle fleet and the admin
// account directory.
type RegistryHandler struct {
	service *service.RegistryService
}

// NewRegistryHandler creates a new handler.
func NewRegistryHandler(svc *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{service: svc}
}

// Instructors godoc
// @Summary List instructors
// @Description Returns the active instructor roster
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *RegistryHandler) Instructors(c *gin.Context) {
	instructors, err := h.service.Instructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}

// Users godoc
// @Summary List user accounts
// @Description Returns portal accounts with optional role, active and search filters
// @Tags Registry
// @Produce json
// @Param role query string false "Filter by role (CLIENT, INSTRUCTOR, ADMIN)"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Match against name or email"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users [get]
func (h *RegistryHandler) Users(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(strings.ToUpper(role))
		switch r {
		case models.RoleClient, models.RoleInstructor, models.RoleAdmin:
			filter.Role = &r
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role filter"))
			return
		}
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, pagination, err := h.service.Users(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Vehicles godoc
// @Summary List vehicles
// @Description Returns the vehicle fleet
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vehicles [get]
func (h *RegistryHandler) Vehicles(c *gin.Context) {
	vehicles, err := h.service.Vehicles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicles, nil)
}

// CreateVehicle godoc
// @Summary Add a vehicle
// @Description Adds a vehicle to the fleet
// @Tags Registry
// @Accept json
// @Produce json
// @Param payload body service.VehicleRequest true "Vehicle"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /vehicles [post]
func (h *RegistryHandler) CreateVehicle(c *gin.Context) {
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vehicle payload"))
		return
	}

	vehicle, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vehicle)
}

// UpdateVehicle godoc
// @Summary Update a vehicle
// @Description Replaces a vehicle's attributes
// @Tags Registry
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body service.VehicleRequest true "Vehicle"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vehicles/{id} [put]
func (h *RegistryHandler) UpdateVehicle(c *gin.Context) {
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vehicle payload"))
		return
	}

	vehicle, err := h.service.UpdateVehicle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// RetireVehicle godoc
// @Summary Retire a vehicle
// @Description Removes a vehicle from future slot assignment
// @Tags Registry
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vehicles/{id} [delete]
func (h *RegistryHandler) RetireVehicle(c *gin.Context) {
	if err := h.service.RetireVehicle(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
