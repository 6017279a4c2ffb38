package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Organization returns an organization document for tenantCode with empty
// reference sub-collections and a fresh ObjectID.
func Organization(tenantCode string) models.Organization {
	return models.Organization{
		models.KeyID:           primitive.NewObjectID(),
		models.KeyTenant:       "tenant-" + tenantCode,
		models.KeyTenantCode:   tenantCode,
		"name":                 "Org " + tenantCode,
		models.CollReasonCodes: []any{},
		models.CollStates:      []any{},
		models.CollCastes:      []any{},
	}
}

// Country returns a raw country entry as stored in reasonCodes.
func Country(id, code, name string) map[string]any {
	return map[string]any{
		"id":          id,
		"countryCode": code,
		"reasonName":  name,
		"isDeleted":   false,
		"createdOn":   "2025-01-01T10:00:00.000000000",
		"createdBy":   "fixture",
	}
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization inserts org into the organization collection.
func (f *Fixtures) CreateOrganization(ctx context.Context, org models.Organization) models.Organization {
	f.t.Helper()
	if _, err := f.db.Collection("organization").InsertOne(ctx, map[string]any(org)); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}
