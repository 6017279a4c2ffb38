package bootstrap

import (
	"fmt"
	"strings"
	"time"

	organizationstore "github.com/dalemusser/refhub/internal/app/store/organizations"
	"github.com/dalemusser/refhub/internal/app/system/auditlog"
	"github.com/dalemusser/refhub/internal/app/system/docservice"
	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for refhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, document_backend, etc.
//   - Environment variables: REFHUB_MONGO_URI, REFHUB_DOCUMENT_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --document_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "document_backend", Default: BackendMongo, Desc: "Organization document store: 'mongo', 'http' or 'memory'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "refhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "organization_collection", Default: organizationstore.DefaultCollection, Desc: "MongoDB collection holding organization documents"},

	// HTTP document service
	{Name: "docservice_base_url", Default: "", Desc: "Document service base URL (blank: NEXT_PUBLIC_API_BASE_URL or API_BASE_URL)"},
	{Name: "docservice_token", Default: "", Desc: "Static bearer token for the document service"},
	{Name: "docservice_client_id", Default: "", Desc: "OAuth2 client ID for the client-credentials grant"},
	{Name: "docservice_client_secret", Default: "", Desc: "OAuth2 client secret for the client-credentials grant"},
	{Name: "docservice_token_url", Default: "", Desc: "OAuth2 token endpoint for the client-credentials grant"},
	{Name: "docservice_timeout", Default: "15s", Desc: "Document service request timeout"},

	{Name: "memory_tenants", Default: "", Desc: "Comma-separated tenant codes seeded with empty documents (memory backend)"},

	{Name: "country_collection", Default: models.CollReasonCodes, Desc: "Sub-collection that stores country entries"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "refhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_rate_limit", Default: 20, Desc: "POST /session attempts allowed per client per minute (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Session event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_refdata", Default: "all", Desc: "Reference-data change logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_short", Default: "5s", Desc: "Deadline for reads of an organization document"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for create, edit and delete"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, with precedence
// flags > env (REFHUB_*) > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "REFHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DocumentBackend: strings.ToLower(strings.TrimSpace(appValues.String("document_backend"))),

		MongoURI:               appValues.String("mongo_uri"),
		MongoDatabase:          appValues.String("mongo_database"),
		MongoMaxPoolSize:       uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:       uint64(appValues.Int("mongo_min_pool_size")),
		OrganizationCollection: appValues.String("organization_collection"),

		DocServiceBaseURL:      appValues.String("docservice_base_url"),
		DocServiceToken:        appValues.String("docservice_token"),
		DocServiceClientID:     appValues.String("docservice_client_id"),
		DocServiceClientSecret: appValues.String("docservice_client_secret"),
		DocServiceTokenURL:     appValues.String("docservice_token_url"),
		DocServiceTimeout:      appValues.Duration("docservice_timeout", 15*time.Second),

		MemoryTenants: splitList(appValues.String("memory_tenants")),

		CountryCollection: appValues.String("country_collection"),

		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionRateLimit: appValues.Int("session_rate_limit"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogRefData: appValues.String("audit_log_refdata"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var auditModes = map[string]bool{
	auditlog.ModeAll: true, auditlog.ModeDB: true, auditlog.ModeLog: true, auditlog.ModeOff: true, "": true,
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is only checked when something will connect with it, so an
// http-backed deployment with audit logging to zap needs no database.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.DocumentBackend {
	case BackendMongo, BackendMemory:
	case BackendHTTP:
		if appCfg.DocServiceBaseURL == "" && docservice.BaseURLFromEnv() == "" {
			return fmt.Errorf("document_backend %q requires docservice_base_url (or NEXT_PUBLIC_API_BASE_URL / API_BASE_URL)", BackendHTTP)
		}
		partial := appCfg.DocServiceClientID != "" || appCfg.DocServiceClientSecret != "" || appCfg.DocServiceTokenURL != ""
		complete := appCfg.DocServiceClientID != "" && appCfg.DocServiceClientSecret != "" && appCfg.DocServiceTokenURL != ""
		if partial && !complete {
			return fmt.Errorf("docservice client credentials need client id, client secret and token url together")
		}
	default:
		return fmt.Errorf("unknown document_backend %q (want mongo, http or memory)", appCfg.DocumentBackend)
	}

	if appCfg.usesMongo() {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_refdata": appCfg.AuditLogRefData} {
		if !auditModes[mode] {
			return fmt.Errorf("%s: unknown mode %q", name, mode)
		}
	}

	if appCfg.SessionRateLimit < 0 {
		return fmt.Errorf("session_rate_limit must not be negative")
	}

	if appCfg.CountryCollection != models.CollReasonCodes {
		logger.Warn("countries stored outside reasonCodes; existing front ends will not see them",
			zap.String("country_collection", appCfg.CountryCollection))
	}
	return nil
}
