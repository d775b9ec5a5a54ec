// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/indexes"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/validators"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens MongoDB and, when redis_url is set, Redis. Both are
// pinged so a bad address fails startup instead of the first request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		state:         &appState{},
	}

	if appCfg.RedisURL == "" {
		return deps, nil
	}
	redisOpts, err := redis.ParseURL(appCfg.RedisURL)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("parse redis_url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", redisOpts.Addr))
	deps.Redis = rdb
	return deps, nil
}

// EnsureSchema creates the collections with their JSON-Schema validators,
// then the indexes every store relies on, including the unique identity
// email and the invitation lookup indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("collection validators: %w", err)
	}
	return indexes.EnsureAll(ctx, deps.MongoDatabase, logger)
}
