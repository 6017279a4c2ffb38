package refdata

import (
	"context"
	"strings"

	"github.com/dalemusser/refhub/internal/domain/models"
)

// Gateway loads and stores a tenant's organization document.
//
// FetchByTenant returns (nil, nil) when no document exists for the tenant.
// Save persists the whole document and returns what the backend reports as
// stored; a nil document with a nil error means "stored as sent".
type Gateway interface {
	FetchByTenant(ctx context.Context, tenantCode string) (models.Organization, error)
	Save(ctx context.Context, org models.Organization) (models.Organization, error)
}

// Principal identifies who is calling and for which tenant. It is resolved
// once per request by the caller and passed to every operation.
type Principal struct {
	TenantCode string
	ActorID    string
}

// Normalized returns p with surrounding whitespace removed.
func (p Principal) Normalized() Principal {
	return Principal{
		TenantCode: strings.TrimSpace(p.TenantCode),
		ActorID:    strings.TrimSpace(p.ActorID),
	}
}

// IDGenerator returns a new entry id. seq is a hint derived from the current
// size of the sub-collection.
type IDGenerator func(seq int) string

// Clock returns the createdOn value for new entries.
type Clock func() string
