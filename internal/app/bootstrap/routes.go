// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	adminusersfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/adminusers"
	authgooglefeature "github.com/nacholimon/opinwork-firebase/internal/app/features/authgoogle"
	catalogfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/catalog"
	dashboardfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/dashboard"
	errorsfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	firstadminfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/firstadmin"
	healthfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/health"
	homefeature "github.com/nacholimon/opinwork-firebase/internal/app/features/home"
	loginfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/login"
	logoutfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/logout"
	profilefeature "github.com/nacholimon/opinwork-firebase/internal/app/features/profile"
	registerfeature "github.com/nacholimon/opinwork-firebase/internal/app/features/register"
	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	listingstore "github.com/nacholimon/opinwork-firebase/internal/app/store/listings"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/oauthstate"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/profileedit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.state == nil || deps.state.sessions == nil {
		return nil, errors.New("build handler: Startup has not run")
	}
	return newRouter(appCfg, deps, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, logger *zap.Logger) http.Handler {
	st := deps.state
	db := deps.MongoDatabase

	profiles := profilestore.New(db)
	invitations := invitation.NewService(invitationstore.New(db), profiles, st.identities, appCfg.BaseURL, st.audit, st.metrics, logger)
	editor := profileedit.NewService(profiles, st.identities, st.objects, st.bus, st.audit, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	g := guard.New(st.roles, st.metrics, logger)
	googleEnabled := st.google != nil

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(auditlog.WithRequestMeta)

	// Global auth middleware: loads the signed-in identity into context.
	// This makes it available to all handlers via auth.CurrentIdentity(r).
	r.Use(st.sessions.LoadSessionIdentity)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", st.metrics.Handler())

	// Locally stored avatars
	if appCfg.StorageType == "local" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Splash: sends the caller where their role belongs
	homeHandler := homefeature.NewHandler(st.roles, st.bundle, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication. The Google entry points hang off the login and
	// register routers; the callback has its own mount.
	var oauth authgooglefeature.OAuth
	if googleEnabled {
		oauth = st.google
	}
	googleHandler := authgooglefeature.NewHandler(oauth, oauthstate.New(db), st.identities, profiles, invitations, st.sessions, st.audit, st.bundle, errLog, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	loginHandler := loginfeature.NewHandler(st.identities, profiles, st.sessions, st.limiter, st.bundle, errLog, st.audit, googleEnabled, logger)
	loginRouter := loginfeature.Routes(loginHandler)
	loginRouter.Get("/google", googleHandler.ServeLogin)
	r.Mount("/login", loginRouter)

	logoutHandler := logoutfeature.NewHandler(st.sessions, st.identities, st.audit, st.bundle, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	registerHandler := registerfeature.NewHandler(invitations, st.sessions, st.bundle, errLog, googleEnabled, logger)
	registerRouter := registerfeature.Routes(registerHandler)
	registerRouter.Get("/google", googleHandler.ServeRegister)
	r.Mount("/register", registerRouter)

	if appCfg.FirstAdminEnabled {
		firstAdminHandler := firstadminfeature.NewHandler(st.identities, profiles, st.sessions, st.audit, st.bundle, errLog, logger)
		r.Mount("/first-admin", firstadminfeature.Routes(firstAdminHandler))
	}

	// Dashboards
	dashboardHandler := dashboardfeature.NewHandler(profiles, invitations, st.roles, st.bundle, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, g))
	r.Mount("/admin-dashboard", dashboardfeature.AdminRoutes(dashboardHandler, g))

	// User administration and invitations
	adminUsersHandler := adminusersfeature.NewHandler(profiles, editor, invitations, st.bundle, errLog, logger)
	r.Mount("/admin-users", adminusersfeature.Routes(adminUsersHandler, g))

	// Own profile
	profileHandler := profilefeature.NewHandler(profiles, editor, st.bundle, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, g))

	// Housing catalog and credit simulator
	catalogHandler := catalogfeature.NewHandler(listingstore.New(db), st.bundle, errLog, logger)
	r.Mount("/housing-catalog", catalogfeature.HousingRoutes(catalogHandler, g))
	r.Mount("/credit-simulator", catalogfeature.CreditRoutes(catalogHandler, g))

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r
}
