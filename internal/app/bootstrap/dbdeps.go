// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/mentorhub/internal/app/backend"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/app/system/tasks"
	"github.com/dalemusser/mentorhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend handles and long-lived collaborators built in
// ConnectDB. Workers are created there and started in Startup.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Backend       *backend.Client

	Metrics       *metrics.Metrics
	AuditLog      *auditlog.Logger
	LoginLimiter  *ratelimit.LoginLimiter
	SignUpLimiter *ratelimit.Limiter
	Outbox        *workers.OutboxRetry
	Tasks         *tasks.Scheduler
}
