// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/roomhub/internal/app/system/search"
	"github.com/dalemusser/roomhub/internal/app/system/tokenstore"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// Tokens and Index are nil when their backend is not configured.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Tokens *tokenstore.RedisStore
	Index  *search.Meili
	Files  storage.Store
}
