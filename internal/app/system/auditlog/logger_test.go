package auditlog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/store/audit"
	"github.com/dalemusser/refhub/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	events []audit.Event
	err    error
}

func (r *recorder) Log(_ context.Context, ev audit.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.Observe(ctx, refdata.Event{Kind: "caste", Op: "create", Outcome: refdata.OutcomeOK})
	logger.SessionStarted(ctx, refdata.Principal{TenantCode: "ACME"})
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode      string
		wantDB    int
		wantLines int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
		{"", 1, 1},
	}
	for _, tc := range tests {
		t.Run("mode="+tc.mode, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			rec := &recorder{}
			logger := auditlog.New(rec, zap.New(core), auditlog.Config{RefData: tc.mode})

			logger.Observe(context.Background(), refdata.Event{
				Kind: "state", Op: "create", TenantCode: "ACME", Outcome: refdata.OutcomeOK,
			})

			if len(rec.events) != tc.wantDB {
				t.Errorf("stored: got %d, want %d", len(rec.events), tc.wantDB)
			}
			if logs.Len() != tc.wantLines {
				t.Errorf("log lines: got %d, want %d", logs.Len(), tc.wantLines)
			}
		})
	}
}

func TestLogger_Observe_MapsEvent(t *testing.T) {
	rec := &recorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{})
	ctx := auditlog.WithRequestInfo(context.Background(), auditlog.RequestInfo{RequestID: "req-1", IP: "10.0.0.1"})

	logger.Observe(ctx, refdata.Event{
		Kind: "caste", Op: "delete", TenantCode: "ACME", ActorID: "EMP001", EntryID: "e1",
		Outcome: refdata.OutcomeRejected, Reason: "Caste is already deleted", Duration: 12 * time.Millisecond,
	})
	logger.Observe(ctx, refdata.Event{Kind: "caste", Op: "create", Outcome: refdata.OutcomeInvalid})

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 stored event (invalid skipped), got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.EventType != "caste_deleted" || ev.Category != audit.CategoryRefData {
		t.Errorf("classification: got %s/%s", ev.Category, ev.EventType)
	}
	if ev.Success || ev.FailureReason != "Caste is already deleted" {
		t.Errorf("outcome: success=%v reason=%q", ev.Success, ev.FailureReason)
	}
	if ev.RequestID != "req-1" || ev.IP != "10.0.0.1" {
		t.Errorf("request info not applied: %+v", ev)
	}
	if ev.Details["duration_ms"] != "12" {
		t.Errorf("duration_ms: got %q", ev.Details["duration_ms"])
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := auditlog.New(&recorder{err: errors.New("down")}, zap.New(core), auditlog.Config{Auth: auditlog.ModeDB})

	logger.SessionEnded(context.Background(), refdata.Principal{TenantCode: "ACME"})

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected store failure to be logged")
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	var got auditlog.RequestInfo
	h := auditlog.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = auditlog.RequestInfoFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.RequestID == "" || rec.Header().Get(auditlog.RequestIDHeader) != got.RequestID {
		t.Errorf("request id: ctx=%q header=%q", got.RequestID, rec.Header().Get(auditlog.RequestIDHeader))
	}
	if got.IP != "203.0.113.9" {
		t.Errorf("ip: got %q", got.IP)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auditlog.RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.RequestID != "abc" {
		t.Errorf("incoming request id not kept: %q", got.RequestID)
	}
}
