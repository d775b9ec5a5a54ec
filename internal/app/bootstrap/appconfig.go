// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything below
// belongs to opinwork and is loaded in LoadConfig from config files,
// OPINWORK_* environment variables or flags.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string        // Secret key for signing session cookies
	SessionName   string        // Cookie name (default: opinwork-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Lifetime of the session cookie

	// BaseURL prefixes invitation links and the Google callback.
	BaseURL string

	// Avatar storage: "local" or "s3"
	StorageType      string
	StorageLocalPath string // Directory for avatars (local backend)
	StorageLocalURL  string // URL prefix the local files are served under

	// S3 or S3-compatible storage (only used when StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageS3Endpoint  string // MinIO-style endpoint; blank means AWS
	StorageS3PublicURL string // Public base URL for objects; blank means virtual-host URL
	StorageS3AccessKey string // Blank uses the default AWS credential chain
	StorageS3SecretKey string

	// Google OAuth; both blank disables federated sign-in
	GoogleClientID     string
	GoogleClientSecret string

	// RedisURL enables cross-instance identity/profile change events.
	RedisURL     string
	RedisChannel string

	DefaultLanguage string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth       string
	AuditLogAdmin      string
	AuditLogInvitation string

	// FirstAdminEnabled mounts the first-admin bootstrap route.
	FirstAdminEnabled bool

	// Login throttling per email, and per client IP at four times the limit
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Role lookup: how long a request waits, and how long a resolved role
	// is reused without a change event.
	RoleWait        time.Duration
	RoleCacheMaxAge time.Duration
}
