package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Dependency is an optional backing service reported by the health check.
// Its failure degrades the status but does not fail the check.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Deps   []Dependency
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, optional
// dependencies and logger.
func NewHandler(client *mongo.Client, deps []Dependency, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Deps:   deps,
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
// A failing optional dependency yields 200 with "status":"degraded".
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

	if len(h.Deps) > 0 {
		resp.Dependencies = make(map[string]string, len(h.Deps))
	}
	for _, d := range h.Deps {
		if err := d.Check(ctx); err != nil {
			h.Log.Warn("health-check: dependency unavailable",
				zap.String("dependency", d.Name), zap.Error(err))
			resp.Dependencies[d.Name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[d.Name] = "ok"
	}

	_ = json.NewEncoder(w).Encode(resp)
}
