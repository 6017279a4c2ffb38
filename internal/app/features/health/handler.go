package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger reports whether the document backend is reachable. The Mongo
// organization store, the document-service client and the in-memory gateway
// all satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Backend     Pinger
	BackendName string
	Log         *zap.Logger
}

// NewHandler constructs a health Handler for backend.
func NewHandler(backend Pinger, backendName string, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:     backend,
		BackendName: backendName,
		Log:         logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Store   string `json:"store"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"mongo", "store":"connected" }
//
// On backend failure: 503 and
//
//	{ "status":"error", "backend":"mongo", "store":"disconnected", "message":"Document store unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Backend: h.BackendName,
		Store:   "connected",
	}

	if err := h.Backend.Ping(ctx); err != nil {
		h.Log.Error("health-check: backend ping failed", zap.String("backend", h.BackendName), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Store = "disconnected"
		resp.Message = "Document store unavailable"
		resp.Error = err.Error()
	}

	_ = json.NewEncoder(w).Encode(resp)
}
