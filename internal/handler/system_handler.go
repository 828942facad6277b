package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/response"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports process and dependency health.
type SystemHandler struct {
	db        *database.DB
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. rdb may be nil.
func NewSystemHandler(db *database.DB, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Health handles GET /health. It returns 503 when the database is unreachable;
// redis is optional and only reported.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:   "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Database: "up",
		Redis:    "disabled",
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		status.Status = "degraded"
		status.Database = "down"
	}

	if h.rdb != nil {
		status.Redis = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			status.Redis = "down"
		}
	}

	code := http.StatusOK
	if status.Database != "up" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}
