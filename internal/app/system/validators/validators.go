// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections this service writes (if missing) and
// attaches JSON-Schema validators. An empty orgCollection skips the
// organization collection. Servers without collMod/validator support
// (some DocumentDB versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, orgCollection string, logger *zap.Logger) error {
	targets := []struct {
		name   string
		schema bson.M
	}{
		{orgCollection, OrganizationSchema()},
		{"audit_events", auditEventsSchema()},
	}

	var problems []string
	for _, t := range targets {
		if t.name == "" {
			continue
		}
		log := logger.With(zap.String("collection", t.name))
		if err := ensureCollection(ctx, db, t.name, log); err != nil {
			problems = append(problems, t.name+": "+err.Error())
			continue
		}
		switch err := setValidator(ctx, db, t.name, t.schema); {
		case err == nil:
			log.Info("validator ensured")
		case unsupported.match(err):
			log.Info("validator skipped (unsupported)")
		default:
			problems = append(problems, t.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureCollection makes sure name exists. A concurrent creator winning the
// race is not an error.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if namespaceExists.match(err) {
			return nil
		}
		log.Warn("createCollection failed", zap.Error(err))
		return err
	}
	log.Info("created collection")
	return nil
}

// setValidator uses validationLevel "moderate" so that documents written by
// other services before the validator existed can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

// serverErr classifies a command failure by code, falling back to message
// text for servers that report no code.
type serverErr struct {
	codes   []int32
	phrases []string
}

var (
	namespaceExists = serverErr{codes: []int32{48}, phrases: []string{"already exists", "namespace exists"}}
	unsupported     = serverErr{codes: []int32{59, 115}, phrases: []string{"no such command", "not implemented", "not supported"}}
)

func (k serverErr) match(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && slices.Contains(k.codes, ce.Code) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range k.phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

// entryArray describes a reference sub-collection: every element carries an
// id and an isDeleted flag; kind-specific fields are left open because
// countries and reason codes share one array.
func entryArray() bson.M {
	return bson.M{
		"bsonType": bson.A{"array", "null"},
		"items": bson.M{
			"bsonType": "object",
			"required": bson.A{"id", "isDeleted"},
			"properties": bson.M{
				"id":        nonBlank,
				"isDeleted": bson.M{"bsonType": "bool"},
				"createdOn": bson.M{"bsonType": "string"},
				"createdBy": bson.M{"bsonType": bson.A{"string", "null"}},
			},
		},
	}
}

// OrganizationSchema is the validator attached to the organization collection.
func OrganizationSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"tenantCode"},
			"properties": bson.M{
				"tenantCode":  nonBlank,
				"reasonCodes": entryArray(),
				"states":      entryArray(),
				"castes":      entryArray(),
			},
		},
	}
}

func auditEventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "category", "event_type", "success"},
			"properties": bson.M{
				"timestamp":  bson.M{"bsonType": "date"},
				"category":   nonBlank,
				"event_type": nonBlank,
				"success":    bson.M{"bsonType": "bool"},
			},
		},
	}
}
