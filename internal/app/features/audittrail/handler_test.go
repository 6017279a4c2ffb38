package audittrail_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/refhub/internal/app/features/audittrail"
	"github.com/dalemusser/refhub/internal/app/store/audit"
	"github.com/dalemusser/refhub/internal/testutil"
	"go.uber.org/zap"
)

type fakeQuerier struct {
	got    audit.QueryFilter
	events []audit.Event
	err    error
}

func (f *fakeQuerier) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	f.got = filter
	return f.events, f.err
}

func TestServeList_Filter(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		check  func(t *testing.T, f audit.QueryFilter)
		status int
	}{
		{"defaults", "", func(t *testing.T, f audit.QueryFilter) {
			if f.TenantCode != "ACME" || f.Limit != 50 || f.Offset != 0 {
				t.Errorf("filter: %+v", f)
			}
		}, http.StatusOK},
		{"tenant cannot be overridden", "?tenant=OTHER&kind=caste&actor=EMP002", func(t *testing.T, f audit.QueryFilter) {
			if f.TenantCode != "ACME" || f.Kind != "caste" || f.ActorID != "EMP002" {
				t.Errorf("filter: %+v", f)
			}
		}, http.StatusOK},
		{"limit capped", "?limit=5000&offset=10", func(t *testing.T, f audit.QueryFilter) {
			if f.Limit != 200 || f.Offset != 10 {
				t.Errorf("filter: %+v", f)
			}
		}, http.StatusOK},
		{"time range", "?since=2025-01-01T00:00:00Z&until=2025-02-01T00:00:00Z", func(t *testing.T, f audit.QueryFilter) {
			if f.StartTime == nil || f.EndTime == nil || !f.EndTime.After(*f.StartTime) {
				t.Errorf("filter: %+v", f)
			}
		}, http.StatusOK},
		{"bad limit", "?limit=-1", nil, http.StatusBadRequest},
		{"bad offset", "?offset=x", nil, http.StatusBadRequest},
		{"bad since", "?since=yesterday", nil, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &fakeQuerier{}
			h := audittrail.Routes(audittrail.NewHandler(q, zap.NewNop()))
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewTenantRequest(t, http.MethodGet, "/"+tc.query, "ACME", nil))
			rec.AssertStatus(t, tc.status)
			if tc.check != nil {
				tc.check(t, q.got)
			}
		})
	}
}

func TestServeList_Views(t *testing.T) {
	q := &fakeQuerier{events: []audit.Event{{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Category:  audit.CategoryRefData,
		EventType: "caste_" + audit.VerbCreated,
		ActorID:   "EMP001",
		Kind:      "caste",
		EntryID:   "e1",
		Success:   true,
	}}}
	h := audittrail.Routes(audittrail.NewHandler(q, zap.NewNop()))
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewTenantRequest(t, http.MethodGet, "/", "ACME", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"eventType":"caste_created"`)
	rec.AssertContains(t, `"entryId":"e1"`)
	if res := rec.Decode(t); res.Total == nil || *res.Total != 1 {
		t.Errorf("result: %+v", res)
	}
}

func TestServeList_StoreError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection reset")}
	h := audittrail.Routes(audittrail.NewHandler(q, zap.NewNop()))
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewTenantRequest(t, http.MethodGet, "/", "ACME", nil))
	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestServeList_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, tenant := range []string{"ACME", "ACME", "OTHER"} {
		if err := store.Log(ctx, audit.Event{TenantCode: tenant, Category: audit.CategoryRefData, EventType: "state_" + audit.VerbDeleted, Success: true}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	h := audittrail.Routes(audittrail.NewHandler(store, zap.NewNop()))
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewTenantRequest(t, http.MethodGet, "/?category=refdata", "ACME", nil))
	rec.AssertStatus(t, http.StatusOK)
	if res := rec.Decode(t); res.Total == nil || *res.Total != 2 {
		t.Errorf("only the caller's tenant should be listed: %+v", res)
	}
}
