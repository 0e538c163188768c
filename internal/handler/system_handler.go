package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/response"
)

const healthTimeout = 3 * time.Second

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// SystemHandler reports process and dependency health.
type SystemHandler struct {
	checks    map[string]HealthCheck
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. checks is keyed by the name
// reported in the response, e.g. "mongo".
func NewSystemHandler(checks map[string]HealthCheck, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Checks     map[string]string `json:"checks"`
}

// Health godoc
// GET /health
// Runs every dependency check; any failure turns the response into a 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := healthReport{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("Health check failed")
			report.Checks[name] = "down"
			report.Status = "degraded"
			continue
		}
		report.Checks[name] = "ok"
	}

	if report.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Status:  response.StatusError,
			Message: "One or more dependencies are unavailable.",
			Data:    report,
		})
		return
	}
	response.Success(c, http.StatusOK, "ok", report)
}
