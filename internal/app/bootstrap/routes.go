// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"

	authnfeature "github.com/dalemusser/roomhub/internal/app/features/authn"
	errorsfeature "github.com/dalemusser/roomhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/roomhub/internal/app/features/health"
	notificationsfeature "github.com/dalemusser/roomhub/internal/app/features/notifications"
	roomsfeature "github.com/dalemusser/roomhub/internal/app/features/rooms"
	usersfeature "github.com/dalemusser/roomhub/internal/app/features/users"
	"github.com/dalemusser/roomhub/internal/app/membership"
	metricsstore "github.com/dalemusser/roomhub/internal/app/store/metrics"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/metrics"
	"github.com/dalemusser/roomhub/internal/app/system/ratelimit"
	"github.com/dalemusser/roomhub/internal/app/system/search"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// loginLimiter is built with the handler and stopped in Shutdown.
var loginLimiter *ratelimit.LoginLimiter

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. RoomHub wires the session manager, the
// membership workflow and the search service once, then mounts the JSON
// feature routers under /auth, /user, /room and /notification.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	users := userstore.New(db)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	var revoker auth.Revoker
	if deps.Tokens != nil {
		revoker = deps.Tokens
	}
	sessionMgr, err := auth.NewSessionManager(appCfg.JWTSecret, appCfg.CookieTokenName, appCfg.TokenTTL, secure, users, revoker, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	var runner txn.Runner = txn.None{}
	if appCfg.MongoTransactions {
		runner = txn.NewMongo(deps.MongoClient, logger)
	}
	svc := membership.NewForDB(db, runner, logger)

	var index search.Index
	if deps.Index != nil {
		index = deps.Index
	}
	searchSvc := search.NewService(index, roomstore.New(db), logger)

	if appCfg.LoginRateLimit > 0 {
		loginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger, dependencyChecks(deps)...)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())
	registerCounts(db, logger)

	// Uploaded files, when stored on local disk
	if appCfg.StorageType == "local" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	authnHandler := authnfeature.NewHandler(db, sessionMgr, loginLimiter, logger)
	r.Mount("/auth", authnfeature.Routes(authnHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(db, svc, logger)
	r.Mount("/user", usersfeature.Routes(usersHandler, sessionMgr))

	roomsHandler := roomsfeature.NewHandler(db, svc, searchSvc, deps.Files, logger)
	r.Mount("/room", roomsfeature.Routes(roomsHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(db, svc, logger)
	r.Mount("/notification", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	return r, nil
}

// dependencyChecks reports the optional backends on /health.
func dependencyChecks(deps DBDeps) []healthfeature.Check {
	var checks []healthfeature.Check
	if deps.Tokens != nil {
		checks = append(checks, healthfeature.Check{Name: "redis", Ping: deps.Tokens.Ping})
	}
	if deps.Index != nil {
		idx := deps.Index
		checks = append(checks, healthfeature.Check{Name: "search", Ping: func(ctx context.Context) error {
			if !idx.Healthy(ctx) {
				return errors.New("meilisearch unreachable")
			}
			return nil
		}})
	}
	return checks
}

// registerCounts exports entity totals on /metrics. Building the handler
// twice in one process keeps the first registration.
func registerCounts(db *mongo.Database, logger *zap.Logger) {
	err := prometheus.Register(metricsstore.NewCollector(db, timeouts.Ping()))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		logger.Warn("register count metrics", zap.Error(err))
	}
}
