// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for RoomHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: ROOMHUB_MONGO_URI, ROOMHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "roomhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_transactions", Default: true, Desc: "Use transactions for multi-document writes when the server supports them"},

	// Auth cookie
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Token signing secret (at least 32 bytes; must be strong in production)"},
	{Name: "cookie_token_name", Default: "roomhub_token", Desc: "Auth cookie name"},
	{Name: "token_ttl", Default: "24h", Desc: "Auth token lifetime (e.g., 24h, 30m)"},

	// Optional backends
	{Name: "redis_url", Default: "", Desc: "Redis URL for token revocation (blank disables revocation)"},
	{Name: "meili_url", Default: "", Desc: "Meilisearch URL for room search (blank uses the Mongo text index)"},
	{Name: "meili_api_key", Default: "", Desc: "Meilisearch API key"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},

	// S3-compatible storage
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3 endpoint host (e.g., s3.amazonaws.com or localhost:9000)"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_access_key", Default: "", Desc: "S3 access key"},
	{Name: "storage_s3_secret_key", Default: "", Desc: "S3 secret key"},
	{Name: "storage_s3_use_ssl", Default: true, Desc: "Use TLS for the S3 endpoint"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for stored objects"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Failed login attempts allowed per client IP per window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window"},

	// Handler deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and single writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection workflows and uploads"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, ROOMHUB_* for app) and flags,
// merged with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROOMHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoTransactions: appValues.Bool("mongo_transactions"),

		JWTSecret:       appValues.String("jwt_secret"),
		CookieTokenName: appValues.String("cookie_token_name"),
		TokenTTL:        appValues.Duration("token_ttl", 24*time.Hour),

		RedisURL:    appValues.String("redis_url"),
		MeiliURL:    appValues.String("meili_url"),
		MeiliAPIKey: appValues.String("meili_api_key"),

		StorageType:      strings.ToLower(appValues.String("storage_type")),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		StorageS3Endpoint:  appValues.String("storage_s3_endpoint"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3AccessKey: appValues.String("storage_s3_access_key"),
		StorageS3SecretKey: appValues.String("storage_s3_secret_key"),
		StorageS3UseSSL:    appValues.Bool("storage_s3_use_ssl"),
		StorageS3PublicURL: appValues.String("storage_s3_public_url"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// RoomHub validates the MongoDB URI, the signing secret and the storage
// settings before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.JWTSecret) < auth.MinSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes", auth.MinSecretLen)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.JWTSecret, "dev-only") {
		return fmt.Errorf("jwt_secret must be changed from the development default in prod")
	}
	if appCfg.CookieTokenName == "" {
		return fmt.Errorf("cookie_token_name is required")
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" || !strings.HasPrefix(appCfg.StorageLocalURL, "/") {
			return fmt.Errorf("local storage requires storage_local_path and a storage_local_url starting with '/'")
		}
	case "s3":
		if appCfg.StorageS3Endpoint == "" || appCfg.StorageS3Bucket == "" {
			return fmt.Errorf("s3 storage requires storage_s3_endpoint and storage_s3_bucket")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative")
	}
	return nil
}
