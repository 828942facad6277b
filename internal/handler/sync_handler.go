package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/middleware"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/response"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stemsi/handbook/internal/validator"
)

// SyncHandler exposes reconciliation to administrators.
type SyncHandler struct {
	sync *service.SyncService
	log  zerolog.Logger
}

func NewSyncHandler(sync *service.SyncService, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		sync: sync,
		log:  log.With().Str("component", "sync_handler").Logger(),
	}
}

// Sync handles POST /api/v1/admin/sync: scrape the handbook and reconcile.
func (h *SyncHandler) Sync(c *gin.Context) {
	report, err := h.sync.Run(c.Request.Context())
	h.respond(c, report, err)
}

// ApplySnapshot handles POST /api/v1/admin/snapshots: reconcile the body.
func (h *SyncHandler) ApplySnapshot(c *gin.Context) {
	var req model.SnapshotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.sync.Apply(c.Request.Context(), req.Snapshot())
	h.respond(c, report, err)
}

func (h *SyncHandler) respond(c *gin.Context, report *reconcile.Report, err error) {
	if err == nil {
		response.Success(c, http.StatusOK, gin.H{"report": report})
		return
	}

	log := h.log.With().Err(err).Logger()
	if claims := middleware.GetClaims(c); claims != nil {
		log = log.With().Str("subject", claims.Subject).Logger()
	}

	var ve *model.ValidationError
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSyncInProgress)
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{ve.Field: ve.Message})
	case errors.Is(err, service.ErrUpstream):
		log.Warn().Msg("Handbook fetch failed")
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
	case errors.Is(err, repository.ErrConflict):
		log.Warn().Msg("Snapshot conflicts with stored catalog")
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		log.Error().Msg("Catalog sync failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
