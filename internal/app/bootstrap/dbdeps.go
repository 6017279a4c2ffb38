package bootstrap

import (
	"github.com/dalemusser/refhub/internal/app/features/health"
	"github.com/dalemusser/refhub/internal/app/refdata"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the document backend and, when used, the MongoDB handles.
type DBDeps struct {
	// Nil unless the mongo backend or audit storage needs them.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Gateway is the selected document backend; Backend is also pinged by
	// /health.
	Gateway refdata.Gateway
	Backend health.Pinger
}
