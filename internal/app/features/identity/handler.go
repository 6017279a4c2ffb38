// Package identity issues and clears the signed session that carries the
// caller's tenant and employee id.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/system/limits"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"go.uber.org/zap"
)

// Auditor records session changes. *auditlog.Logger satisfies it.
type Auditor interface {
	SessionStarted(ctx context.Context, p refdata.Principal)
	SessionEnded(ctx context.Context, p refdata.Principal)
	SessionRejected(ctx context.Context, reason string)
}

type Handler struct {
	Sessions *session.Manager
	Audit    Auditor
	Log      *zap.Logger
}

func NewHandler(sessions *session.Manager, audit Auditor, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
	}
}

// establishRequest mirrors the keyclockroleinfo cookie fields.
type establishRequest struct {
	Org        string `json:"org"`
	EmployeeID string `json:"employeeId"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleEstablish handles POST /session.
func (h *Handler) HandleEstablish(w http.ResponseWriter, r *http.Request) {
	var req establishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxSessionBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, refdata.Result{Status: false, Error: "Request body must be a JSON object"})
		return
	}
	p := refdata.Principal{TenantCode: req.Org, ActorID: req.EmployeeID}.Normalized()
	if p.TenantCode == "" {
		h.Audit.SessionRejected(r.Context(), "org is required")
		writeJSON(w, http.StatusBadRequest, refdata.Result{Status: false, Error: "org is required"})
		return
	}
	if strings.ContainsAny(p.TenantCode, " \t\r\n") {
		h.Audit.SessionRejected(r.Context(), "org must not contain whitespace")
		writeJSON(w, http.StatusBadRequest, refdata.Result{Status: false, Error: "org must not contain whitespace"})
		return
	}

	if err := h.Sessions.Establish(w, r, p); err != nil {
		h.Log.Error("session: save", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, refdata.Result{Status: false, Error: "Could not establish session"})
		return
	}
	h.Audit.SessionStarted(r.Context(), p)
	h.Log.Info("session established", zap.String("tenant", p.TenantCode), zap.String("actor", p.ActorID))
	writeJSON(w, http.StatusOK, refdata.Result{Status: true, TenantCode: p.TenantCode, Message: "Session established"})
}

// HandleClear handles DELETE /session. Clearing an absent or unreadable
// session still succeeds.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	p, err := h.Sessions.FromRequest(r)
	if err != nil {
		h.Log.Debug("session clear: no readable session", zap.Error(err))
	}
	if err := h.Sessions.Clear(w, r); err != nil {
		h.Log.Error("session: clear", zap.Error(err))
	}
	if p.TenantCode != "" {
		h.Audit.SessionEnded(r.Context(), p)
	}
	writeJSON(w, http.StatusOK, refdata.Result{Status: true, Message: "Session cleared"})
}
