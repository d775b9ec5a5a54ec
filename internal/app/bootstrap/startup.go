// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/audit"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/oauthstate"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/metrics"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/objectstore"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/ratelimit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/rolelookup"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/tasks"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GoogleCallbackPath is appended to base_url to form the OAuth redirect URL.
const GoogleCallbackPath = "/auth/google/callback"

// appState holds the long-lived objects shared by the feature handlers.
type appState struct {
	secure     bool
	bus        events.Bus
	identities *identity.MongoProvider
	sessions   *auth.SessionManager
	roles      *rolelookup.Watcher
	bundle     *i18n.Bundle
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	audit      *auditlog.Logger
	objects    objectstore.Store
	google     *identity.GoogleAuth
	limiter    *ratelimit.LoginLimiter

	// stops run in reverse order at shutdown.
	stops []func()
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the event bus, identity provider, session manager, role watcher, i18n
// bundle, metrics registry, audit logger and avatar store once.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.state == nil {
		return errors.New("startup: dependencies were not created by ConnectDB")
	}
	return deps.state.build(ctx, coreCfg.Env == "prod", appCfg, deps, logger)
}

func (s *appState) build(ctx context.Context, secure bool, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	s.secure = secure
	timeouts.Configure(timeouts.Config{RoleWait: appCfg.RoleWait})

	// Events: Redis relays between instances; otherwise they stay in-process.
	if deps.Redis != nil {
		rb := events.NewRedisBus(deps.Redis, appCfg.RedisChannel, logger)
		runCtx, cancel := context.WithCancel(context.Background())
		if err := rb.Start(runCtx); err != nil {
			cancel()
			return fmt.Errorf("start redis events: %w", err)
		}
		s.stops = append(s.stops, cancel)
		s.bus = rb
	} else {
		s.bus = events.NewLocalBus()
	}

	s.identities = identity.NewMongoProvider(deps.MongoDatabase, s.bus)

	sessions, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return err
	}
	// The identity provider is authoritative: every request re-reads it.
	sessions.SetIdentityFetcher(s.identities)
	s.sessions = sessions

	s.roles = rolelookup.NewWatcher(rolelookup.New(profilestore.New(deps.MongoDatabase)), appCfg.RoleCacheMaxAge, logger)
	s.stops = append(s.stops, s.roles.Attach(s.bus))

	s.bundle = i18n.New(appCfg.DefaultLanguage)

	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.New(s.registry)

	s.audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Admin:      appCfg.AuditLogAdmin,
		Invitation: appCfg.AuditLogInvitation,
	})

	s.objects, err = newObjectStore(ctx, appCfg)
	if err != nil {
		return err
	}
	logger.Info("avatar storage ready", zap.String("type", appCfg.StorageType))

	s.google = identity.NewGoogleAuth(appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		strings.TrimRight(appCfg.BaseURL, "/")+GoogleCallbackPath)
	if s.google == nil {
		logger.Info("Google sign-in disabled (no client credentials)")
	}

	s.limiter = ratelimit.NewLoginLimiter(4*appCfg.LoginRateLimit, appCfg.LoginRateWindow, appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	s.stops = append(s.stops, s.limiter.Stop)

	runner := tasks.NewRunner(logger, timeouts.Long(),
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
		tasks.RoleCachePruneJob(s.roles, appCfg.RoleCacheMaxAge, logger),
	)
	runner.Start()
	s.stops = append(s.stops, runner.Stop)

	return nil
}

func newObjectStore(ctx context.Context, appCfg AppConfig) (objectstore.Store, error) {
	if appCfg.StorageType == "s3" {
		store, err := objectstore.NewS3(ctx, objectstore.S3Config{
			Region:    appCfg.StorageS3Region,
			Bucket:    appCfg.StorageS3Bucket,
			Prefix:    appCfg.StorageS3Prefix,
			Endpoint:  appCfg.StorageS3Endpoint,
			PublicURL: appCfg.StorageS3PublicURL,
			AccessKey: appCfg.StorageS3AccessKey,
			SecretKey: appCfg.StorageS3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return store, nil
	}
	store, err := objectstore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return store, nil
}
