package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole-dijon/portal-api/internal/service"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
	"github.com/autoecole-dijon/portal-api/pkg/response"
)

// PackageHandler serves the lesson package catalog.
type PackageHandler struct {
	service *service.PackageService
}

// NewPackageHandler creates a new handler.
func NewPackageHandler(svc *service.PackageService) *PackageHandler {
	return &PackageHandler{service: svc}
}

// List godoc
// @Summary List packages
// @Description Returns catalog packages; admins also see inactive entries
// @Tags Packages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	actor, _ := actorFromContext(c)
	packages, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, packages, nil)
}

// Create godoc
// @Summary Create a package
// @Description Adds a lesson package to the catalog
// @Tags Packages
// @Accept json
// @Produce json
// @Param payload body service.PackageRequest true "Package"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /packages [post]
func (h *PackageHandler) Create(c *gin.Context) {
	var req service.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid package payload"))
		return
	}

	pkg, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pkg)
}

// Update godoc
// @Summary Update a package
// @Description Replaces a package's attributes
// @Tags Packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param payload body service.PackageRequest true "Package"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /packages/{id} [put]
func (h *PackageHandler) Update(c *gin.Context) {
	var req service.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid package payload"))
		return
	}

	pkg, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pkg, nil)
}

// Purchase godoc
// @Summary Purchase a package
// @Description Records that the authenticated client bought a package
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /packages/{id}/purchase [post]
func (h *PackageHandler) Purchase(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	purchase, err := h.service.Purchase(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, purchase)
}

// HoursBalance godoc
// @Summary Driving hours balance
// @Description Purchased versus completed driving hours for the authenticated client
// @Tags Packages
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/hours [get]
func (h *PackageHandler) HoursBalance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	balance, err := h.service.HoursBalance(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
