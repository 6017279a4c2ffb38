package bootstrap

import "time"

// Document backends.
const (
	BackendMongo  = "mongo"
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

// AppConfig holds service-specific configuration for refhub.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS; everything here is
// about where organization documents live and how callers are identified.
type AppConfig struct {
	// Which store holds organization documents: mongo, http or memory.
	DocumentBackend string

	// MongoDB connection configuration
	MongoURI               string
	MongoDatabase          string
	MongoMaxPoolSize       uint64
	MongoMinPoolSize       uint64
	OrganizationCollection string // collection holding one document per tenant

	// HTTP document service (DocumentBackend == "http")
	DocServiceBaseURL      string // blank falls back to NEXT_PUBLIC_API_BASE_URL / API_BASE_URL
	DocServiceToken        string
	DocServiceClientID     string
	DocServiceClientSecret string
	DocServiceTokenURL     string
	DocServiceTimeout      time.Duration

	// Tenants seeded with an empty organization document (DocumentBackend == "memory")
	MemoryTenants []string

	// Sub-collection that holds country entries
	CountryCollection string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string
	SessionDomain string // blank means current host

	// SessionRateLimit caps POST /session per client per minute; 0 disables.
	SessionRateLimit int

	// Audit logging: all, db, log or off
	AuditLogAuth    string
	AuditLogRefData string

	// Per-request deadlines for document-store round trips
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}

// auditNeedsDB reports whether any audit category writes to MongoDB.
func (c AppConfig) auditNeedsDB() bool {
	for _, m := range []string{c.AuditLogAuth, c.AuditLogRefData} {
		if m == "" || m == "all" || m == "db" {
			return true
		}
	}
	return false
}

// usesMongo reports whether ConnectDB must open a MongoDB client.
func (c AppConfig) usesMongo() bool {
	return c.DocumentBackend == BackendMongo || c.auditNeedsDB()
}
