// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/refhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultCollection is where organization documents live unless configured
// otherwise.
const DefaultCollection = "organization"

var (
	ErrDuplicateTenant = errors.New("an organization with this tenantCode already exists")
	ErrMissingTenant   = errors.New("organization document has no tenantCode")
)

// Store reads and writes whole organization documents. It implements
// refdata.Gateway.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return NewWithCollection(db, DefaultCollection)
}

// NewWithCollection uses the named collection instead of DefaultCollection.
func NewWithCollection(db *mongo.Database, name string) *Store {
	if name == "" {
		name = DefaultCollection
	}
	return &Store{c: db.Collection(name)}
}

// FetchByTenant returns the organization whose tenantCode equals tenantCode,
// or (nil, nil) when there is none.
func (s *Store) FetchByTenant(ctx context.Context, tenantCode string) (models.Organization, error) {
	var raw bson.M
	err := s.c.FindOne(ctx, bson.M{models.KeyTenantCode: tenantCode}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toOrganization(raw), nil
}

// Save replaces the stored document with org, matched by _id. A document
// without _id is inserted and gets a fresh ObjectID.
func (s *Store) Save(ctx context.Context, org models.Organization) (models.Organization, error) {
	if org.TenantCode() == "" {
		return nil, ErrMissingTenant
	}
	doc := org.Clone()

	id, ok := doc[models.KeyID]
	if !ok || id == nil {
		return s.Insert(ctx, doc)
	}

	_, err := s.c.ReplaceOne(ctx, bson.M{models.KeyID: id}, map[string]any(doc), options.Replace().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateTenant
		}
		return nil, fmt.Errorf("replace organization %v: %w", id, err)
	}
	return doc, nil
}

// Insert stores a new organization document.
func (s *Store) Insert(ctx context.Context, org models.Organization) (models.Organization, error) {
	if org.TenantCode() == "" {
		return nil, ErrMissingTenant
	}
	doc := org.Clone()
	if id, ok := doc[models.KeyID]; !ok || id == nil {
		doc[models.KeyID] = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, map[string]any(doc)); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateTenant
		}
		return nil, err
	}
	return doc, nil
}

// DeleteByTenant removes the organization for tenantCode. Returns the number
// of documents deleted (0 or 1).
func (s *Store) DeleteByTenant(ctx context.Context, tenantCode string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{models.KeyTenantCode: tenantCode})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Tenants lists the tenant codes that have an organization document.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, models.KeyTenantCode, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if code, ok := v.(string); ok && code != "" {
			out = append(out, code)
		}
	}
	return out, nil
}

// Ping checks connectivity to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

func toOrganization(raw bson.M) models.Organization {
	m, _ := models.Normalize(raw).(map[string]any)
	return models.Organization(m)
}
