// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// spec is one desired index. Keys are compared in order.
type spec struct {
	name   string
	keys   bson.D
	unique bool
}

func organizationIndexes() []spec {
	return []spec{
		// Every lookup is by tenantCode; one document per tenant.
		{name: "uniq_org_tenantcode", keys: bson.D{{Key: "tenantCode", Value: 1}}, unique: true},
	}
}

func auditIndexes() []spec {
	return []spec{
		{name: "idx_audit_timestamp", keys: bson.D{{Key: "timestamp", Value: -1}}},
		{name: "idx_audit_tenant_timestamp", keys: bson.D{
			{Key: "tenant_code", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
		{name: "idx_audit_category_type_timestamp", keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "event_type", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
		// GET /api/audit?kind=... within one tenant.
		{name: "idx_audit_tenant_kind_timestamp", keys: bson.D{
			{Key: "tenant_code", Value: 1},
			{Key: "kind", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
	}
}

// EnsureAll reconciles indexes at startup. An empty orgCollection skips the
// organization collection (documents live outside MongoDB). Problems across
// collections are joined so startup fails with the full picture.
func EnsureAll(ctx context.Context, db *mongo.Database, orgCollection string, logger *zap.Logger) error {
	var problems []string
	if orgCollection != "" {
		problems = append(problems, reconcile(ctx, db.Collection(orgCollection), organizationIndexes(), logger)...)
	}
	problems = append(problems, reconcile(ctx, db.Collection("audit_events"), auditIndexes(), logger)...)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func signature(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ",")
}

// current returns the collection's indexes by key signature. A collection
// that does not exist yet has none.
func current(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if cur.Decode(&idx) == nil {
			out[signature(idx.Key)] = idx
		}
	}
	return out
}

// reconcile creates each wanted index unless one with the same keys, name and
// uniqueness exists. Same keys with a different name or uniqueness is dropped
// and recreated.
func reconcile(ctx context.Context, coll *mongo.Collection, want []spec, logger *zap.Logger) []string {
	var problems []string
	have := current(ctx, coll)

	for _, s := range want {
		sig := signature(s.keys)
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("index", s.name),
			zap.String("keys", sig))

		if ex, ok := have[sig]; ok {
			if ex.Name == s.name && ex.Unique == s.unique {
				log.Debug("index present")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop mismatched index failed", zap.String("existing", ex.Name), zap.Error(err))
				problems = append(problems, fmt.Sprintf("%s(%s): drop %s: %v", coll.Name(), s.name, ex.Name, err))
				continue
			}
			log.Info("dropped mismatched index", zap.String("existing", ex.Name))
		}

		model := mongo.IndexModel{Keys: s.keys, Options: options.Index().SetName(s.name)}
		if s.unique {
			model.Options.SetUnique(true)
		}
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			if s.unique && mongo.IsDuplicateKeyError(err) {
				problems = append(problems, fmt.Sprintf("%s(%s): duplicates present on %s", coll.Name(), s.name, sig))
			} else {
				problems = append(problems, fmt.Sprintf("%s(%s): %v", coll.Name(), s.name, err))
			}
			log.Warn("index create failed", zap.Error(err))
			continue
		}
		log.Info("index created")
	}
	return problems
}
