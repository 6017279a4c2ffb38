package bootstrap

import (
	"context"
	"net/http"
	"time"

	audittrailfeature "github.com/dalemusser/refhub/internal/app/features/audittrail"
	healthfeature "github.com/dalemusser/refhub/internal/app/features/health"
	identityfeature "github.com/dalemusser/refhub/internal/app/features/identity"
	referencefeature "github.com/dalemusser/refhub/internal/app/features/reference"
	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/store/audit"
	"github.com/dalemusser/refhub/internal/app/system/auditlog"
	"github.com/dalemusser/refhub/internal/app/system/docservice"
	"github.com/dalemusser/refhub/internal/app/system/metrics"
	"github.com/dalemusser/refhub/internal/app/system/ratelimit"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// Every request gets a request id, metrics and a resolved principal. /api
// additionally requires a tenant and forwards the caller's authToken cookie
// to the HTTP document service.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := session.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// recorder stays a nil interface without MongoDB.
	var recorder auditlog.Recorder
	var auditStore *audit.Store
	if deps.MongoDatabase != nil {
		auditStore = audit.New(deps.MongoDatabase)
		recorder = auditStore
	}
	auditLog := auditlog.New(recorder, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		RefData: appCfg.AuditLogRefData,
	})

	m := metrics.New()
	engines := refdata.NewEngines(deps.Gateway, appCfg.CountryCollection, logger,
		refdata.WithObserver(auditLog),
		refdata.WithObserver(m),
	)

	r := chi.NewRouter()
	r.Use(auditlog.Middleware)
	r.Use(m.Middleware)
	r.Use(sessionMgr.Load)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Backend, appCfg.DocumentBackend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", m.Handler())

	limiter := ratelimit.New(appCfg.SessionRateLimit, time.Minute)
	if appCfg.SessionRateLimit > 0 {
		go limiter.Run(context.Background(), 5*time.Minute)
	}
	identityHandler := identityfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/session", identityfeature.Routes(identityHandler, limiter.PerClient))

	r.Route("/api", func(api chi.Router) {
		api.Use(session.RequireTenant(auditLog))
		api.Use(docservice.ForwardAuthToken)
		referencefeature.Mount(api, engines, logger)
		if auditStore != nil {
			api.Mount("/audit", audittrailfeature.Routes(audittrailfeature.NewHandler(auditStore, logger)))
		}
	})

	return r, nil
}
