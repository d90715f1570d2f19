package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check probes an optional dependency such as the token store or the
// search index. A failing check is reported but does not fail the endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Checks []Check
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, optional
// dependency checks and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{
		Client: client,
		Checks: checks,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Message      string            `json:"message,omitempty"`
	Error        string            `json:"error,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "dependencies":{"redis":"ok"} }
//
// When an optional dependency is down the status is "degraded", still 200.
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if len(h.Checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.Checks))
	}
	for _, c := range h.Checks {
		if err := c.Ping(ctx); err != nil {
			h.Log.Warn("health-check: dependency unavailable", zap.String("dependency", c.Name), zap.Error(err))
			resp.Dependencies[c.Name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[c.Name] = "ok"
	}

	_ = json.NewEncoder(w).Encode(resp)
}
