// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and CORS; everything specific to MentorHub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: mentorhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Identity provider configuration
	APIKey      string        // Required; startup fails without it
	ProjectID   string        // Issuer/audience of ID tokens
	TokenSecret string        // HMAC key for ID tokens
	TokenTTL    time.Duration // ID token lifetime

	// File storage configuration
	StorageType        string // "local", "gcs" or "s3"
	StorageLocalPath   string // Local storage directory
	StorageLocalURL    string // URL prefix for serving local files
	StorageBucket      string // GCS or S3 bucket
	StorageRegion      string // AWS region (s3)
	StoragePrefix      string // Key prefix (s3)
	StoragePublicURL   string // Public base URL (s3)
	StorageCredentials string // Service account JSON path (gcs); blank uses ADC

	// Scheduling
	BookingPolicy     string        // "open" or "exclusive"
	LivePollInterval  time.Duration // Poll interval when change streams are unavailable
	OutboxInterval    time.Duration // How often the outbox worker looks for due entries
	OutboxMaxAttempts int           // Attempts before an outbox entry is abandoned

	// Audit logging
	AuditLogAuth       string // "all", "db", "log" or "off"
	AuditLogScheduling string // "all", "db", "log" or "off"

	Timeouts timeouts.Config

	// Websocket origins allowed besides the serving host
	LiveOrigins []string

	BaseURL string // e.g., "https://mentorhub.example" or "http://localhost:3000"
}
