// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"strings"

	appointmentsfeature "github.com/dalemusser/mentorhub/internal/app/features/appointments"
	availabilityfeature "github.com/dalemusser/mentorhub/internal/app/features/availability"
	dashboardfeature "github.com/dalemusser/mentorhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/mentorhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mentorhub/internal/app/features/health"
	livefeature "github.com/dalemusser/mentorhub/internal/app/features/live"
	loginfeature "github.com/dalemusser/mentorhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/mentorhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/mentorhub/internal/app/features/notifications"
	profilefeature "github.com/dalemusser/mentorhub/internal/app/features/profile"
	signupfeature "github.com/dalemusser/mentorhub/internal/app/features/signup"
	uploadsfeature "github.com/dalemusser/mentorhub/internal/app/features/uploads"
	userinfofeature "github.com/dalemusser/mentorhub/internal/app/features/userinfo"
	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the services from the shared
// backend client, applies session middleware, and mounts the feature
// routers: auth, profiles, uploads, availability, appointments,
// notifications, dashboards and live feeds.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	policy, err := scheduling.ParsePolicy(appCfg.BookingPolicy)
	if err != nil {
		return nil, err
	}

	c := deps.Backend
	uploadSvc := uploads.New(c.Blob, logger)
	accountSvc := accounts.FromBackend(c, uploadSvc, deps.Metrics, logger)
	schedulingSvc := scheduling.FromBackend(c, policy, appCfg.LivePollInterval, deps.AuditLog, deps.Metrics, logger)

	r := chi.NewRouter()

	// Global auth middleware: resolves the cookie or bearer token into a
	// SessionUser available via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser(sessionResolver(accountSvc)))

	errorsHandler := errorsfeature.NewHandler()
	errorsHandler.Install(r)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, strings.ToLower(appCfg.StorageType), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus metrics, admins only
	r.With(sessionMgr.RequireRole(models.RoleAdmin)).Handle("/metrics", deps.Metrics.Handler())

	// Locally stored uploads
	if _, ok := c.Blob.Store.(*storage.Local); ok {
		prefix := strings.TrimRight(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", fileserver.Handler(prefix, appCfg.StorageLocalPath))
	}

	// Authentication
	signupHandler := signupfeature.NewHandler(accountSvc, sessionMgr, deps.SignUpLimiter, deps.AuditLog, deps.Metrics, logger)
	r.Mount("/auth/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(accountSvc, sessionMgr, deps.LoginLimiter, deps.AuditLog, deps.Metrics, logger)
	r.Mount("/auth/signin", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(accountSvc, sessionMgr, deps.AuditLog, logger)
	r.Mount("/auth/signout", logoutfeature.Routes(logoutHandler, sessionMgr))

	userinfoHandler := userinfofeature.NewHandler()
	r.Mount("/auth/me", userinfofeature.Routes(userinfoHandler))

	// Profiles and uploads
	profileHandler := profilefeature.NewHandler(accountSvc, logger)
	r.Mount("/profiles", profilefeature.Routes(profileHandler, sessionMgr))

	uploadsHandler := uploadsfeature.NewHandler(uploadSvc, logger)
	r.Mount("/uploads", uploadsfeature.Routes(uploadsHandler, sessionMgr))

	// Scheduling
	availabilityHandler := availabilityfeature.NewHandler(schedulingSvc, logger)
	r.Mount("/mentors", availabilityfeature.Routes(availabilityHandler, sessionMgr))

	appointmentsHandler := appointmentsfeature.NewHandler(schedulingSvc, logger)
	r.Mount("/appointments", appointmentsfeature.Routes(appointmentsHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(schedulingSvc, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	// Role-based dashboards
	dashboardHandler := dashboardfeature.NewHandler(schedulingSvc, profilestore.New(deps.MongoDatabase), logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Websocket feeds
	liveHandler := livefeature.NewHandler(schedulingSvc, accountSvc, deps.Metrics, appCfg.LiveOrigins, logger)
	r.Mount("/live", livefeature.Routes(liveHandler, sessionMgr))

	return r, nil
}

// sessionResolver adapts accounts.GetCurrentUser to the session middleware.
func sessionResolver(acc *accounts.Service) auth.Resolver {
	return func(ctx context.Context, idToken string) (*auth.SessionUser, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()

		s, err := acc.GetCurrentUser(ctx, idToken)
		if err != nil || s == nil {
			return nil, err
		}
		return &auth.SessionUser{
			ID:      s.UID,
			Name:    s.FullName,
			Email:   s.Email,
			Role:    s.Role,
			IsAdmin: s.IsAdmin,
		}, nil
	}
}
