package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/system/session"
)

// Caller returns a principal for tenantCode acting as a fixed test employee.
func Caller(tenantCode string) refdata.Principal {
	return refdata.Principal{TenantCode: tenantCode, ActorID: "EMP001"}
}

// WithPrincipal adds p to the request context, bypassing session middleware.
func WithPrincipal(r *http.Request, p refdata.Principal) *http.Request {
	return r.WithContext(session.WithPrincipal(r.Context(), p))
}

// NewJSONRequest creates a request whose body is body encoded as JSON. A
// string body is sent as-is.
func NewJSONRequest(t testing.TB, method, target string, body any) *http.Request {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewTenantRequest creates a JSON request already carrying a principal for
// tenantCode.
func NewTenantRequest(t testing.TB, method, target, tenantCode string, body any) *http.Request {
	t.Helper()
	return WithPrincipal(NewJSONRequest(t, method, target, body), Caller(tenantCode))
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Decode decodes the body as a refdata.Result.
func (r *ResponseRecorder) Decode(t testing.TB) refdata.Result {
	t.Helper()
	var res refdata.Result
	if err := json.Unmarshal(r.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
	return res
}
