package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/server/respond"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	// DB is optional; when set, an unreachable database makes the probe fail.
	DB  Pinger
	Log *zap.Logger
}

type health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			h.Log.Warn("health check failed", zap.Error(err))
			respond.JSON(w, http.StatusServiceUnavailable, health{Status: "unhealthy", Timestamp: now})
			return
		}
	}
	respond.JSON(w, http.StatusOK, health{Status: "healthy", Timestamp: now})
}
