// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/backend"
	"github.com/dalemusser/mentorhub/internal/app/store/appointments"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/store/availability"
	"github.com/dalemusser/mentorhub/internal/app/store/notifications"
	"github.com/dalemusser/mentorhub/internal/app/store/outbox"
	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/blob"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/app/system/tasks"
	"github.com/dalemusser/mentorhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Sign-up attempts allowed per client IP per hour.
const signUpsPerHour = 10

// ConnectDB connects to MongoDB and builds the backend client: the identity
// provider, the document store and the blob store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	id, err := identity.New(db, identity.Config{
		APIKey:      appCfg.APIKey,
		ProjectID:   appCfg.ProjectID,
		TokenSecret: []byte(appCfg.TokenSecret),
		TokenTTL:    appCfg.TokenTTL,
	}, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	files, err := blob.Open(ctx, blob.Config{
		Type:           appCfg.StorageType,
		LocalPath:      appCfg.StorageLocalPath,
		LocalURL:       appCfg.StorageLocalURL,
		GCSBucket:      appCfg.StorageBucket,
		GCSCredentials: appCfg.StorageCredentials,
		S3Region:       appCfg.StorageRegion,
		S3Bucket:       appCfg.StorageBucket,
		S3Prefix:       appCfg.StoragePrefix,
		S3PublicURL:    appCfg.StoragePublicURL,
	}, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("blob storage: %w", err)
	}

	m := metrics.New()
	loginLimiter := ratelimit.NewLoginLimiter()
	signUpLimiter := ratelimit.New(signUpsPerHour, time.Hour)
	outboxStore := outbox.New(db)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Backend:       backend.New(id, db, files),
		Metrics:       m,
		AuditLog: auditlog.New(audit.New(db), logger, auditlog.Config{
			Auth:       appCfg.AuditLogAuth,
			Scheduling: appCfg.AuditLogScheduling,
		}),
		LoginLimiter:  loginLimiter,
		SignUpLimiter: signUpLimiter,
		Outbox: workers.NewOutboxRetry(outboxStore, notifications.New(db), m, logger, workers.OutboxRetryConfig{
			Interval:    appCfg.OutboxInterval,
			MaxAttempts: appCfg.OutboxMaxAttempts,
		}),
		Tasks: tasks.NewScheduler(logger,
			tasks.LimiterSweepJob("login-limiter", loginLimiter, logger),
			tasks.LimiterSweepJob("signup-limiter", signUpLimiter, logger),
			tasks.OutboxBacklogJob(outboxStore, logger),
		),
	}, nil
}

// indexer is implemented by every store that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureSchema creates the indexes of every collection.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	for name, ix := range map[string]indexer{
		"identity_users":      deps.Backend.Auth,
		"user_profiles":       profiles.New(db),
		"mentor_availability": availability.New(db),
		"appointments":        appointments.New(db),
		"notifications":       notifications.New(db),
		"notification_outbox": outbox.New(db),
		"audit_events":        audit.New(db),
	} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", name), zap.Error(err))
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	logger.Info("indexes ensured")
	return nil
}
