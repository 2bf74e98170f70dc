package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole-dijon/portal-api/internal/service"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
	"github.com/autoecole-dijon/portal-api/pkg/response"
)

// AvailabilityHandler serves the day view of lesson slots.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler creates a new handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// ForDate godoc
// @Summary List lesson slots for a day
// @Description Returns the generated slot grid for a date, shaped by the caller's role
// @Tags Availability
// @Produce json
// @Param date query string true "Lesson date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) ForDate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidDate, "date query parameter is required"))
		return
	}

	slots, err := h.service.ForDate(c.Request.Context(), date, actor.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slots, nil, map[string]interface{}{"date": date})
}
