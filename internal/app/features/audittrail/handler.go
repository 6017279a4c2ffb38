// Package audittrail lets a tenant read back its own audit events.
package audittrail

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/store/audit"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Querier reads audit events. *audit.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

type Handler struct {
	Events Querier
	Log    *zap.Logger
}

func NewHandler(events Querier, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Log: logger}
}

// eventView is the JSON shape of one audit event.
type eventView struct {
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	ActorID       string            `json:"actorId,omitempty"`
	Kind          string            `json:"kind,omitempty"`
	EntryID       string            `json:"entryId,omitempty"`
	RequestID     string            `json:"requestId,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toView(e audit.Event) eventView {
	return eventView{
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		ActorID:       e.ActorID,
		Kind:          e.Kind,
		EntryID:       e.EntryID,
		RequestID:     e.RequestID,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, refdata.Result{Status: false, Error: msg})
}

// parseFilter builds a query from the URL. The tenant always comes from the
// caller, never from the query string.
func parseFilter(r *http.Request, tenant string) (audit.QueryFilter, string) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		TenantCode: tenant,
		Category:   strings.TrimSpace(q.Get("category")),
		EventType:  strings.TrimSpace(q.Get("event")),
		Kind:       strings.TrimSpace(q.Get("kind")),
		ActorID:    strings.TrimSpace(q.Get("actor")),
		Limit:      defaultLimit,
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return f, "limit must be a positive integer"
		}
		f.Limit = min(n, maxLimit)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return f, "offset must be a non-negative integer"
		}
		f.Offset = n
	}
	for name, dst := range map[string]**time.Time{"since": &f.StartTime, "until": &f.EndTime} {
		if s := q.Get(name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return f, name + " must be an RFC 3339 timestamp"
			}
			*dst = &t
		}
	}
	return f, ""
}

// ServeList handles GET /api/audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := session.FromContext(r.Context())
	filter, msg := parseFilter(r, p.TenantCode)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit query")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.String("tenant", p.TenantCode), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, refdata.Result{Status: false, Error: "Failed to read audit events"})
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toView(e))
	}
	n := len(views)
	writeJSON(w, http.StatusOK, refdata.Result{Status: true, Data: views, Total: &n, TenantCode: p.TenantCode})
}
