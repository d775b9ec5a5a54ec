// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_url is blank.
	Redis *redis.Client

	// state is allocated by ConnectDB, filled by Startup and read by
	// BuildHandler and Shutdown.
	state *appState
}
