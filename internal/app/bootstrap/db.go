package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/refhub/internal/app/refdata"
	organizationstore "github.com/dalemusser/refhub/internal/app/store/organizations"
	"github.com/dalemusser/refhub/internal/app/system/docservice"
	"github.com/dalemusser/refhub/internal/app/system/indexes"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/dalemusser/refhub/internal/app/system/validators"
	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens MongoDB when needed and builds the selected document
// backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	if appCfg.usesMongo() {
		opts := options.Client().
			ApplyURI(appCfg.MongoURI).
			SetMaxPoolSize(appCfg.MongoMaxPoolSize).
			SetMinPoolSize(appCfg.MongoMinPoolSize)

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
		}
		pctx, cancel := context.WithTimeout(ctx, timeouts.Long())
		defer cancel()
		if err := client.Ping(pctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))
	}

	switch appCfg.DocumentBackend {
	case BackendMongo:
		store := organizationstore.NewWithCollection(deps.MongoDatabase, appCfg.OrganizationCollection)
		deps.Gateway, deps.Backend = store, store

	case BackendHTTP:
		client, err := docservice.New(docservice.Config{
			BaseURL:      appCfg.DocServiceBaseURL,
			Token:        appCfg.DocServiceToken,
			ClientID:     appCfg.DocServiceClientID,
			ClientSecret: appCfg.DocServiceClientSecret,
			TokenURL:     appCfg.DocServiceTokenURL,
			Timeout:      appCfg.DocServiceTimeout,
		}, logger)
		if err != nil {
			return deps, err
		}
		deps.Gateway, deps.Backend = client, client

	case BackendMemory:
		mem := refdata.NewMemoryGateway()
		for _, t := range appCfg.MemoryTenants {
			mem.Put(models.Organization{
				models.KeyTenant:     t,
				models.KeyTenantCode: t,
			})
		}
		logger.Warn("using in-memory document backend; changes are lost on restart",
			zap.Strings("tenants", appCfg.MemoryTenants))
		deps.Gateway, deps.Backend = mem, mem

	default:
		return deps, fmt.Errorf("unknown document_backend %q", appCfg.DocumentBackend)
	}

	logger.Info("document backend ready", zap.String("backend", appCfg.DocumentBackend))
	return deps, nil
}

// EnsureSchema creates indexes and JSON-schema validators on the MongoDB
// collections refhub owns. Without MongoDB it does nothing.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	orgColl := appCfg.OrganizationCollection
	if appCfg.DocumentBackend != BackendMongo {
		// Only audit_events lives in MongoDB.
		orgColl = ""
	}

	if err := validators.EnsureAll(ctx, deps.MongoDatabase, orgColl, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, orgColl, logger); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured", zap.String("organization_collection", orgColl))
	return nil
}
