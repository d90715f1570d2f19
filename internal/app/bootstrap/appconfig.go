// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (ROOMHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging, CORS and body limits; everything RoomHub
// itself needs lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI          string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase     string // Database name within MongoDB
	MongoMaxPoolSize  uint64
	MongoTransactions bool // run multi-document workflow writes in a transaction when the server supports it

	// Auth cookie configuration
	JWTSecret       string        // HS256 signing secret, at least 32 bytes
	CookieTokenName string        // cookie carrying the signed token
	TokenTTL        time.Duration // token and cookie lifetime

	// Optional backends. Empty disables the feature.
	RedisURL    string // token revocation on logout
	MeiliURL    string // room search index
	MeiliAPIKey string

	// File storage configuration
	StorageType      string // "local" or "s3"
	StorageLocalPath string // directory for uploaded files
	StorageLocalURL  string // URL prefix the local files are served under

	// S3-compatible storage (only used if StorageType is "s3")
	StorageS3Endpoint  string
	StorageS3Bucket    string
	StorageS3AccessKey string
	StorageS3SecretKey string
	StorageS3UseSSL    bool
	StorageS3PublicURL string // base URL objects are linked with; defaults to the endpoint

	// Login throttling per client IP
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Handler deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
