// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/roomhub/internal/app/system/filestore"
	"github.com/dalemusser/roomhub/internal/app/system/indexes"
	"github.com/dalemusser/roomhub/internal/app/system/search"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/app/system/tokenstore"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB and the optional backends. Mongo and file
// storage are required; Redis and Meilisearch are skipped when their URL
// is blank.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return deps, fmt.Errorf("connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.DefaultShort)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return deps, fmt.Errorf("ping mongo: %w", err)
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	files, err := openFileStore(ctx, appCfg)
	if err != nil {
		_ = client.Disconnect(ctx)
		return deps, err
	}
	deps.Files = files
	logger.Info("file storage ready", zap.String("type", appCfg.StorageType))

	if appCfg.RedisURL != "" {
		tokens, err := tokenstore.NewRedisStore(ctx, appCfg.RedisURL)
		if err != nil {
			// Revocation is optional; logout still clears the cookie.
			logger.Warn("redis unavailable; token revocation disabled", zap.Error(err))
		} else {
			deps.Tokens = tokens
			logger.Info("token revocation store connected")
		}
	}

	if appCfg.MeiliURL != "" {
		deps.Index = search.NewMeili(appCfg.MeiliURL, appCfg.MeiliAPIKey, logger)
	}

	return deps, nil
}

func openFileStore(ctx context.Context, appCfg AppConfig) (storage.Store, error) {
	if appCfg.StorageType == "s3" {
		s3, err := filestore.NewS3(ctx, filestore.S3Config{
			Endpoint:  appCfg.StorageS3Endpoint,
			Bucket:    appCfg.StorageS3Bucket,
			AccessKey: appCfg.StorageS3AccessKey,
			SecretKey: appCfg.StorageS3SecretKey,
			UseSSL:    appCfg.StorageS3UseSSL,
			PublicURL: appCfg.StorageS3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 storage: %w", err)
		}
		return s3, nil
	}
	local, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	return local, nil
}

// EnsureSchema creates the collection indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
