package refdata

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/refhub/internal/domain/models"
)

// ErrMissingTenantCode is returned by MemoryGateway.Save for documents without
// a tenantCode.
var ErrMissingTenantCode = errors.New("organization document has no tenantCode")

// MemoryGateway keeps organization documents in process. It backs the
// "memory" document backend and the engine tests. Documents are copied on the
// way in and out, so callers never share state with the gateway.
type MemoryGateway struct {
	mu      sync.Mutex
	docs    map[string]models.Organization
	fetches int
	saves   int

	// SaveErr, when set, is returned by Save instead of storing.
	SaveErr error
}

// NewMemoryGateway returns a gateway seeded with docs.
func NewMemoryGateway(docs ...models.Organization) *MemoryGateway {
	g := &MemoryGateway{docs: make(map[string]models.Organization)}
	for _, d := range docs {
		g.Put(d)
	}
	return g
}

// Put stores doc under its tenantCode, replacing any previous document.
func (g *MemoryGateway) Put(doc models.Organization) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[doc.TenantCode()] = doc.Clone()
}

// Get returns a copy of the stored document, or nil.
func (g *MemoryGateway) Get(tenantCode string) models.Organization {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.docs[tenantCode].Clone()
}

func (g *MemoryGateway) FetchByTenant(ctx context.Context, tenantCode string) (models.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	doc, ok := g.docs[tenantCode]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (g *MemoryGateway) Save(ctx context.Context, org models.Organization) (models.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.SaveErr != nil {
		return nil, g.SaveErr
	}
	tenant := org.TenantCode()
	if tenant == "" {
		return nil, ErrMissingTenantCode
	}
	g.docs[tenant] = org.Clone()
	return org.Clone(), nil
}

// Ping satisfies the health check's pinger.
func (g *MemoryGateway) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Counts returns how many fetches and saves the gateway has served.
func (g *MemoryGateway) Counts() (fetches, saves int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetches, g.saves
}
