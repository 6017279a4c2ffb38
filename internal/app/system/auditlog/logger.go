// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/store/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration, one mode per category.
type Config struct {
	Auth    string
	RefData string
}

// Recorder persists audit events. *audit.Store satisfies it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to a Recorder and to zap according to Config.
// It also implements refdata.Observer.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db" output
// is dropped.
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// RequestInfo is the client context attached to events raised while serving
// a request.
type RequestInfo struct {
	RequestID string
	IP        string
	UserAgent string
}

type ctxKey struct{}

// RequestIDHeader is read from incoming requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// WithRequestInfo returns ctx carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// RequestInfoFrom returns the RequestInfo stored in ctx, if any.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(ctxKey{}).(RequestInfo)
	return info, ok
}

// Middleware attaches a RequestInfo to every request. An incoming
// X-Request-ID is kept; otherwise a new UUID is issued.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		info := RequestInfo{RequestID: id, IP: clientIP(r), UserAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(WithRequestInfo(r.Context(), info)))
	})
}

// clientIP prefers proxy headers over RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

/*─────────────────────────────────────────────────────────────────────────────*
| Core                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.TenantCode != "" {
		fields = append(fields, zap.String("tenant", event.TenantCode))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.EntryID != "" {
		fields = append(fields, zap.String("entry_id", event.EntryID))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryRefData:
		m = l.config.RefData
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log records event according to the mode configured for its category.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	if info, ok := RequestInfoFrom(ctx); ok {
		if event.RequestID == "" {
			event.RequestID = info.RequestID
		}
		if event.IP == "" {
			event.IP = info.IP
		}
		if event.UserAgent == "" {
			event.UserAgent = info.UserAgent
		}
	}

	mode := l.mode(event.Category)
	if mode == ModeOff {
		return
	}
	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reference data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

var verbs = map[string]string{
	"create": audit.VerbCreated,
	"edit":   audit.VerbUpdated,
	"delete": audit.VerbDeleted,
}

// Observe implements refdata.Observer. Validation failures never reached the
// store and are not audited.
func (l *Logger) Observe(ctx context.Context, ev refdata.Event) {
	if l == nil || ev.Outcome == refdata.OutcomeInvalid {
		return
	}
	verb, ok := verbs[ev.Op]
	if !ok {
		verb = ev.Op
	}
	event := audit.Event{
		TenantCode: ev.TenantCode,
		Category:   audit.CategoryRefData,
		EventType:  ev.Kind + "_" + verb,
		ActorID:    ev.ActorID,
		Kind:       ev.Kind,
		EntryID:    ev.EntryID,
		Success:    ev.Outcome == refdata.OutcomeOK,
		Details: map[string]string{
			"outcome":     ev.Outcome,
			"duration_ms": strconv.FormatInt(ev.Duration.Milliseconds(), 10),
		},
	}
	if !event.Success {
		event.FailureReason = ev.Reason
	}
	l.Log(ctx, event)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionStarted logs a signed identity being issued.
func (l *Logger) SessionStarted(ctx context.Context, p refdata.Principal) {
	l.Log(ctx, audit.Event{
		TenantCode: p.TenantCode,
		Category:   audit.CategoryAuth,
		EventType:  audit.EventSessionStarted,
		ActorID:    p.ActorID,
		Success:    true,
	})
}

// SessionEnded logs a signed identity being cleared.
func (l *Logger) SessionEnded(ctx context.Context, p refdata.Principal) {
	l.Log(ctx, audit.Event{
		TenantCode: p.TenantCode,
		Category:   audit.CategoryAuth,
		EventType:  audit.EventSessionEnded,
		ActorID:    p.ActorID,
		Success:    true,
	})
}

// SessionRejected logs a request whose identity could not be read.
func (l *Logger) SessionRejected(ctx context.Context, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSessionRejected,
		Success:       false,
		FailureReason: reason,
	})
}
