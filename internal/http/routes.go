package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	sona "github.com/sakunasanka/Sona-frontend-admin-sub000"
	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Guard     GuardChecker
	Inspector SessionInspector
	Root      LandingResolver
	Auth      Authenticator
	Dashboard DashboardLoader
	Sessions  *Sessions

	// SignInLimiter throttles POST /signin per client. Nil disables throttling.
	SignInLimiter *RateLimiter
	Readiness     map[string]ReadinessCheck
	AppsQuery     ApplicationsQuery

	InterceptUnauthorized bool
	CookieDomain          string
	CookieSecure          bool
	// CompressionLevel enables gzip when in 1..9.
	CompressionLevel int

	// TemplateFS overrides where templates are read from. Defaults to the embedded set,
	// or frontend/templates on disk in dev mode.
	TemplateFS fs.FS
	IsDev      bool         // Development mode flag for hot reloading, etc.
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter wires every console route behind the shared middleware chain.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Guard == nil || services.Root == nil || services.Auth == nil || services.Dashboard == nil {
		return nil, errors.New("router: guard, root resolver, auth and dashboard services are required")
	}
	if services.Sessions == nil {
		return nil, errors.New("router: sessions are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := resolveTemplateFS(services)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	ui := &UIHandlers{
		T:                     tr,
		Auth:                  services.Auth,
		Data:                  services.Dashboard,
		Landing:               services.Root,
		Inspector:             services.Inspector,
		AppsQuery:             services.AppsQuery,
		InterceptUnauthorized: services.InterceptUnauthorized,
		IsDev:                 services.IsDev,
		Logger:                logger,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness, logger))
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	registerUIRoutes(mux, ui, routeConfig{
		guard:   services.Guard,
		limiter: services.SignInLimiter,
		csrf:    CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain, Secure: services.CookieSecure}),
	})

	var handler http.Handler = mux
	handler = services.Sessions.Middleware()(handler)
	if services.CompressionLevel > 0 {
		handler = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger})(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

type routeConfig struct {
	guard   GuardChecker
	limiter *RateLimiter
	csrf    func(http.Handler) http.Handler
}

func (c routeConfig) elevated(h http.HandlerFunc) http.Handler {
	return RequireView(c.guard, domainauth.ElevatedView())(h)
}

func (c routeConfig) anyCredential(h http.HandlerFunc) http.Handler {
	return RequireView(c.guard, domainauth.AnyCredentialView())(h)
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, c routeConfig) {
	mux.Handle("GET /{$}", http.HandlerFunc(h.Root))

	mux.Handle("GET /signin", c.csrf(http.HandlerFunc(h.SignInPage)))
	var signIn http.Handler = h.limitSignInForm(c.csrf(http.HandlerFunc(h.SignIn)))
	if c.limiter != nil {
		signIn = c.limiter.Middleware(signIn)
	}
	mux.Handle("POST /signin", signIn)
	mux.Handle("POST /logout", c.csrf(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /forbidden", c.csrf(http.HandlerFunc(h.Forbidden)))

	mux.Handle("GET /dashboard", c.csrf(c.elevated(h.Dashboard)))
	mux.Handle("GET /applications", c.csrf(c.elevated(h.Applications)))
	mux.Handle("GET /profile", c.csrf(c.anyCredential(h.Profile)))

	mux.Handle("GET /api/session", c.anyCredential(h.SessionAPI))
	mux.Handle("GET /api/dashboard", c.elevated(h.DashboardAPI))

	mux.Handle("/", http.HandlerFunc(h.NotFound))
}

func resolveTemplateFS(services RouterServices) (fs.FS, error) {
	switch {
	case services.TemplateFS != nil:
		return services.TemplateFS, nil
	case services.IsDev:
		return os.DirFS(TemplatePathFromRoot), nil
	default:
		sub, err := fs.Sub(sona.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		return sub, nil
	}
}

// staticHandler serves /static/*: from disk without caching in dev mode, from the
// embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}
	staticSub, err := fs.Sub(sona.StaticFS, "frontend/static")
	if err != nil {
		logger.Error("failed to create sub-filesystem for static assets; serving from disk", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), true)
}

// Embedded assets only change with a deploy, so they may be cached briefly.
func staticWithCacheHeaders(handler http.Handler, cacheable bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cacheable {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}
