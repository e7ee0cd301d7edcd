// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ErrMissingAPIKey aborts startup when no api_key is configured.
var ErrMissingAPIKey = errors.New("api_key is required")

// appConfigKeys defines the configuration keys for MentorHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MENTORHUB_MONGO_URI, MENTORHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mentorhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mentorhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Identity provider
	{Name: "api_key", Default: "", Desc: "Backend API key (required)"},
	{Name: "project_id", Default: "mentorhub", Desc: "Project id used as ID token issuer"},
	{Name: "token_secret", Default: "", Desc: "ID token signing secret (defaults to session_key)"},
	{Name: "token_ttl", Default: "1h", Desc: "ID token lifetime"},

	// File storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local', 'gcs' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_bucket", Default: "", Desc: "GCS or S3 bucket name"},
	{Name: "storage_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_prefix", Default: "", Desc: "S3 key prefix"},
	{Name: "storage_public_url", Default: "", Desc: "Public base URL for S3 objects (e.g., a CDN)"},
	{Name: "storage_credentials", Default: "", Desc: "GCS service account JSON path (blank uses ADC)"},

	// Scheduling
	{Name: "booking_policy", Default: "open", Desc: "Slot booking policy: 'open' or 'exclusive'"},
	{Name: "live_poll_interval", Default: "2s", Desc: "Live feed poll interval when change streams are unavailable"},
	{Name: "outbox_interval", Default: "30s", Desc: "Notification outbox retry interval"},
	{Name: "outbox_max_attempts", Default: 8, Desc: "Notification outbox attempts before abandoning"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_scheduling", Default: "all", Desc: "Scheduling event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Operation timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health check timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Single-document operation timeout"},
	{Name: "timeout_medium", Default: "10s", Desc: "List and write operation timeout"},
	{Name: "timeout_long", Default: "30s", Desc: "Upload and transaction timeout"},

	{Name: "live_origins", Default: "", Desc: "Comma-separated extra origins allowed to open websocket feeds"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MENTORHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MENTORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 720*time.Hour),

		// Identity
		APIKey:      appValues.String("api_key"),
		ProjectID:   appValues.String("project_id"),
		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", time.Hour),

		// File storage
		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageBucket:      appValues.String("storage_bucket"),
		StorageRegion:      appValues.String("storage_region"),
		StoragePrefix:      appValues.String("storage_prefix"),
		StoragePublicURL:   appValues.String("storage_public_url"),
		StorageCredentials: appValues.String("storage_credentials"),

		// Scheduling
		BookingPolicy:     appValues.String("booking_policy"),
		LivePollInterval:  appValues.Duration("live_poll_interval", 2*time.Second),
		OutboxInterval:    appValues.Duration("outbox_interval", 30*time.Second),
		OutboxMaxAttempts: appValues.Int("outbox_max_attempts"),

		// Audit logging
		AuditLogAuth:       appValues.String("audit_log_auth"),
		AuditLogScheduling: appValues.String("audit_log_scheduling"),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},

		LiveOrigins: splitList(appValues.String("live_origins")),
		BaseURL:     appValues.String("base_url"),
	}

	if appCfg.TokenSecret == "" {
		appCfg.TokenSecret = appCfg.SessionKey
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A missing api_key is fatal. The MongoDB URI, booking policy, storage
// backend and audit modes are checked here so a typo fails before any
// connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if strings.TrimSpace(appCfg.APIKey) == "" {
		logger.Error("missing api_key; set MENTORHUB_API_KEY")
		return ErrMissingAPIKey
	}
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := scheduling.ParsePolicy(appCfg.BookingPolicy); err != nil {
		return err
	}

	switch strings.ToLower(appCfg.StorageType) {
	case "", "local":
	case "gcs", "s3":
		if appCfg.StorageBucket == "" {
			return fmt.Errorf("storage_type %q requires storage_bucket", appCfg.StorageType)
		}
		if appCfg.StorageType == "s3" && appCfg.StorageRegion == "" {
			return errors.New("storage_type \"s3\" requires storage_region")
		}
	default:
		return fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}

	for key, v := range map[string]string{
		"audit_log_auth":       appCfg.AuditLogAuth,
		"audit_log_scheduling": appCfg.AuditLogScheduling,
	} {
		if !auditlog.ValidMode(v) {
			return fmt.Errorf("%s: unknown mode %q", key, v)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
