package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole-dijon/portal-api/internal/service"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
	"github.com/autoecole-dijon/portal-api/pkg/response"
)

// LessonHandler exposes the past-lesson history projection and feedback.
type LessonHandler struct {
	service *service.LessonService
}

// NewLessonHandler creates a new handler.
func NewLessonHandler(svc *service.LessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// History godoc
// @Summary Completed lesson history
// @Description Returns the caller's completed lessons grouped by month with summary stats
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /lessons/history [get]
func (h *LessonHandler) History(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	history, err := h.service.HistoryFor(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, history, nil)
}

// Export godoc
// @Summary Export lesson history
// @Description Download the caller's lesson history as CSV or PDF
// @Tags Lessons
// @Produce octet-stream
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /lessons/history/export [get]
func (h *LessonHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	raw, filename, err := h.service.Export(c.Request.Context(), actor, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, raw)
}

// AddFeedback godoc
// @Summary Record lesson feedback
// @Description Instructor leaves notes and a rating on a completed lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param payload body service.FeedbackRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reservations/{id}/feedback [post]
func (h *LessonHandler) AddFeedback(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	fb, err := h.service.AddFeedback(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, fb)
}
