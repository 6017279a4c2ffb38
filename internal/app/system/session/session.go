// Package session resolves the caller's tenant and actor once per request.
//
// Two sources are consulted in order: a signed and encrypted gorilla session issued by
// POST /session, then the keyclockroleinfo cookie set by the identity
// provider's front end (URL-encoded JSON with "org" and an employee id).
package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

const (
	DefaultName     = "refhub-session"
	RoleInfoCookie  = "keyclockroleinfo"
	AuthTokenCookie = "authToken"

	tenantKey = "tenant_code"
	actorKey  = "actor_id"
)

var (
	// ErrNoSession means the request carries no identity at all.
	ErrNoSession = errors.New("no session")
	// ErrMalformedSession means an identity was present but unreadable.
	ErrMalformedSession = errors.New("malformed session")
)

// actorKeys are tried in order when reading the actor from the role cookie.
var actorKeys = []string{"employeeId", "employeeID", "user", "username"}

// Manager issues and reads signed sessions.
type Manager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewManager builds a Manager around a cookie store signed with key.
// In production (secure=true) cookies are Secure with SameSite=None; over
// plain http in development they use SameSite=Lax.
func NewManager(key, name, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if key == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}
	if name == "" {
		name = DefaultName
	}

	hashKey, blockKey, err := deriveKeys(key)
	if err != nil {
		return nil, err
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))
	return &Manager{store: store, name: name, log: logger}, nil
}

// deriveKeys expands the configured secret into independent HMAC and AES-256
// keys so the cookie is both signed and encrypted.
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("refhub session cookie"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive session hash key: %w", err)
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive session block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// Name returns the session cookie name.
func (m *Manager) Name() string { return m.name }

// FromRequest resolves the principal for r. It returns ErrNoSession when
// neither source is present and an error wrapping ErrMalformedSession when a
// source is present but cannot be decoded. A principal with an empty
// TenantCode and a nil error is possible when the role cookie lacks "org".
func (m *Manager) FromRequest(r *http.Request) (refdata.Principal, error) {
	if _, err := r.Cookie(m.name); err == nil {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
				return refdata.Principal{}, fmt.Errorf("%w: signed session: %v", ErrMalformedSession, err)
			}
			return refdata.Principal{}, err
		}
		p := refdata.Principal{
			TenantCode: getString(sess, tenantKey),
			ActorID:    getString(sess, actorKey),
		}.Normalized()
		if p.TenantCode != "" {
			return p, nil
		}
	}
	return FromRoleCookie(r)
}

// FromRoleCookie reads the keyclockroleinfo cookie.
func FromRoleCookie(r *http.Request) (refdata.Principal, error) {
	c, err := r.Cookie(RoleInfoCookie)
	if err != nil || c.Value == "" {
		return refdata.Principal{}, ErrNoSession
	}
	return ParseRoleInfo(c.Value)
}

// ParseRoleInfo decodes a keyclockroleinfo cookie value. The value may be
// URL-encoded.
func ParseRoleInfo(raw string) (refdata.Principal, error) {
	if dec, err := url.QueryUnescape(raw); err == nil {
		raw = dec
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return refdata.Principal{}, fmt.Errorf("%w: %s cookie: %v", ErrMalformedSession, RoleInfoCookie, err)
	}
	p := refdata.Principal{TenantCode: stringValue(info["org"])}
	for _, k := range actorKeys {
		if v := stringValue(info[k]); v != "" {
			p.ActorID = v
			break
		}
	}
	return p.Normalized(), nil
}

// AuthToken returns the bearer token cookie set by the front end, if any.
func AuthToken(r *http.Request) string {
	if c, err := r.Cookie(AuthTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Establish stores p in a signed session cookie.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, p refdata.Principal) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil && sess == nil {
		return err
	}
	// A stale or tampered cookie is replaced.
	sess.Values[tenantKey] = p.TenantCode
	sess.Values[actorKey] = p.ActorID
	return sess.Save(r, w)
}

// Clear expires the signed session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil && sess == nil {
		return err
	}
	sess.Options.MaxAge = -1
	sess.Values = map[any]any{}
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context & middleware                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey struct{}

type resolved struct {
	p   refdata.Principal
	err error
}

// WithPrincipal returns ctx carrying p. Handler tests use it to bypass
// cookie handling.
func WithPrincipal(ctx context.Context, p refdata.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, resolved{p: p.Normalized()})
}

// FromContext returns the principal resolved by Load and the error, if any,
// met while resolving it.
func FromContext(ctx context.Context) (refdata.Principal, error) {
	v, ok := ctx.Value(ctxKey{}).(resolved)
	if !ok {
		return refdata.Principal{}, ErrNoSession
	}
	return v.p, v.err
}

// Load resolves the principal and stores it in the request context. It never
// rejects a request; see RequireTenant.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.FromRequest(r)
		if err != nil && errors.Is(err, ErrMalformedSession) {
			m.log.Warn("unreadable session", zap.Error(err))
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, resolved{p: p, err: err})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Rejector is told about requests turned away by RequireTenant.
type Rejector interface {
	SessionRejected(ctx context.Context, reason string)
}

// RequireTenant answers 401 with a JSON failure body unless the context
// carries a principal with a tenant code.
func RequireTenant(rej Rejector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := FromContext(r.Context())
			if err == nil && p.TenantCode != "" {
				next.ServeHTTP(w, r)
				return
			}

			msg := "Tenant code not found"
			if errors.Is(err, ErrMalformedSession) {
				msg = "Session could not be read"
			}
			if rej != nil {
				rej.SessionRejected(r.Context(), msg)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(refdata.Result{Status: false, Error: msg})
		})
	}
}

// helpers

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", t))
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
