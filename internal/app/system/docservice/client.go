// Package docservice is the HTTP document-service backend for organization
// documents. It speaks the attendance query/command API used by the existing
// front end.
package docservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/refhub/internal/app/system/auditlog"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	searchPath  = "/query/attendance/organization/search"
	commandPath = "/command/attendance/organization"

	collectionName = "organization"
	actionInsert   = "insert"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// ErrNoBaseURL is returned by New when no base URL is configured or found in
// the environment.
var ErrNoBaseURL = errors.New("document service base URL is not set")

// ErrNotSaved is returned when the command endpoint answers 2xx with an empty
// or falsy body (null, false, 0, ""), which the service uses to signal that
// nothing was written.
var ErrNotSaved = errors.New("document service did not store the document")

// StatusError reports a non-2xx answer from the document service.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docservice %s: status %d: %s", e.Op, e.Code, e.Body)
}

// Config configures a Client. With ClientID, ClientSecret and TokenURL set the
// client obtains tokens via the client-credentials grant; otherwise Token, if
// set, is sent as a static bearer token.
type Config struct {
	BaseURL      string
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// BaseURLFromEnv returns the first of NEXT_PUBLIC_API_BASE_URL and
// API_BASE_URL that is set.
func BaseURLFromEnv() string {
	for _, k := range []string{"NEXT_PUBLIC_API_BASE_URL", "API_BASE_URL"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Client implements refdata.Gateway over HTTP.
type Client struct {
	base   string
	plain  *http.Client
	tokens oauth2.TokenSource
	log    *zap.Logger
}

// New builds a Client. An empty cfg.BaseURL falls back to BaseURLFromEnv.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = BaseURLFromEnv()
	}
	if base == "" {
		return nil, ErrNoBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	plain := &http.Client{Timeout: timeout}

	c := &Client{
		base:  strings.TrimRight(base, "/"),
		plain: plain,
		log:   logger.With(zap.String("component", "docservice")),
	}

	// The token endpoint is called with the same timeout-bound client.
	tctx := context.WithValue(context.Background(), oauth2.HTTPClient, plain)
	switch {
	case cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		c.tokens = cc.TokenSource(tctx)
	case cfg.Token != "":
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	}
	return c, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Forwarded credentials                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type tokenKey struct{}

// WithBearerToken returns ctx carrying a caller's token. It takes precedence
// over the configured token source for calls made with ctx.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// ForwardAuthToken copies the browser's authToken cookie into the request
// context so document-service calls act on the caller's behalf.
func ForwardAuthToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := session.AuthToken(r); tok != "" {
			r = r.WithContext(WithBearerToken(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Client) httpClient(ctx context.Context) *http.Client {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return oauth2.NewClient(
			context.WithValue(ctx, oauth2.HTTPClient, c.plain),
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}),
		)
	}
	if c.tokens != nil {
		return &http.Client{
			Timeout:   c.plain.Timeout,
			Transport: &oauth2.Transport{Source: c.tokens, Base: c.plain.Transport},
		}
	}
	return c.plain
}

/*─────────────────────────────────────────────────────────────────────────────*
| Gateway                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type searchTerm struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

type command struct {
	Tenant         any                 `json:"tenant"`
	Action         string              `json:"action"`
	ID             any                 `json:"id"`
	CollectionName string              `json:"collectionName"`
	Data           models.Organization `json:"data"`
}

// FetchByTenant searches by tenantCode and returns the first match, or
// (nil, nil) when there is none.
func (c *Client) FetchByTenant(ctx context.Context, tenantCode string) (models.Organization, error) {
	terms := []searchTerm{{Field: models.KeyTenantCode, Value: tenantCode, Operator: "eq"}}

	var docs []models.Organization
	if err := c.post(ctx, "search", searchPath, terms, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 || docs[0] == nil {
		return nil, nil
	}
	return docs[0], nil
}

// Save posts the whole document as an insert command. The service treats an
// insert carrying an existing id as a replace.
func (c *Client) Save(ctx context.Context, org models.Organization) (models.Organization, error) {
	cmd := command{
		Tenant:         org[models.KeyTenant],
		Action:         actionInsert,
		ID:             org[models.KeyID],
		CollectionName: collectionName,
		Data:           org,
	}

	var raw json.RawMessage
	if err := c.post(ctx, "command", commandPath, cmd, &raw); err != nil {
		return nil, err
	}

	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return nil, fmt.Errorf("docservice command: %w", ErrNotSaved)
	}

	// Some deployments echo the stored document; others answer with an ack.
	var stored models.Organization
	if err := json.Unmarshal(raw, &stored); err == nil && stored.TenantCode() != "" {
		return stored, nil
	}
	return nil, nil
}

// Ping checks that the service answers at all. Any status below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.plain.Do(req)
	if err != nil {
		return fmt.Errorf("docservice ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Op: "ping", Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("docservice %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(auditlog.RequestIDHeader, requestID(ctx))

	start := time.Now()
	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		c.log.Warn("document service call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("docservice %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("document service call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("docservice %s: decode: %w", op, err)
	}
	return nil
}

func requestID(ctx context.Context) string {
	if info, ok := auditlog.RequestInfoFrom(ctx); ok && info.RequestID != "" {
		return info.RequestID
	}
	return uuid.NewString()
}
