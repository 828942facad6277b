package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/response"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stemsi/handbook/internal/validator"
)

// CatalogHandler serves the public read-only lookups.
type CatalogHandler struct {
	catalog *service.CatalogService
	log     zerolog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log.With().Str("component", "catalog_handler").Logger(),
	}
}

// ListMajors handles GET /api/v1/majors.
func (h *CatalogHandler) ListMajors(c *gin.Context) {
	majors, err := h.catalog.Majors(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list majors")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"majors": majors})
}

// MajorUnits handles GET /api/v1/majors/:title/units.
func (h *CatalogHandler) MajorUnits(c *gin.Context) {
	title := strings.TrimSpace(c.Param("title"))
	if title == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	units, err := h.catalog.UnitsByMajor(c.Request.Context(), title)
	if err != nil {
		h.log.Error().Err(err).Str("major", title).Msg("Failed to list major units")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"units": units})
}

// FindUnits handles GET /api/v1/units?major=&category=&name=.
func (h *CatalogHandler) FindUnits(c *gin.Context) {
	var q model.UnitQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	units, err := h.catalog.FindUnits(c.Request.Context(), q.Filter())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to find units")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"units": units})
}

// UnitsByName handles GET /api/v1/units/:name. Every row with that exact
// name is returned, one per scope it appears in.
func (h *CatalogHandler) UnitsByName(c *gin.Context) {
	units, err := h.catalog.UnitsByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up unit")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if len(units) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"units": units})
}
