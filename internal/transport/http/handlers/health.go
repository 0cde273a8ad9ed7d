package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether the backing database is reachable.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	db        ReadinessChecker
	startedAt time.Time
}

// NewHealthHandler builds a new health handler instance. db may be nil, in
// which case readiness degenerates to liveness.
func NewHealthHandler(db ReadinessChecker) *HealthHandler {
	return &HealthHandler{db: db, startedAt: time.Now().UTC()}
}

// Status reports service liveness and start time. It never touches
// dependencies: a wedged database must not make the orchestrator restart
// the process.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready reports whether the service can serve traffic, which requires the
// database to answer a ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "unavailable",
				StartedAt: h.startedAt,
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}
