package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// Authenticator is the sign-in/out surface the UI needs.
type Authenticator interface {
	SignIn(ctx context.Context, holder service.TokenHolder, in ports.SignInInput) (domainauth.Claims, error)
	SignOut(ctx context.Context, holder service.TokenHolder) error
}

// DashboardLoader aggregates backend data for views.
type DashboardLoader interface {
	Load(ctx context.Context, token string) (service.DashboardView, error)
	Fetch(ctx context.Context, token, path, expr string) (any, error)
}

// LandingResolver decides where the root path sends a visitor.
type LandingResolver interface {
	Resolve(ctx context.Context, holder service.TokenHolder) domainauth.Decision
}

// SessionInspector reports the derived session state without enforcing anything.
type SessionInspector interface {
	Inspect(ctx context.Context, holder service.TokenHolder) domainauth.Session
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ Authenticator    = (*service.AuthService)(nil)
	_ DashboardLoader  = (*service.DashboardService)(nil)
	_ LandingResolver  = (*service.RootResolver)(nil)
	_ SessionInspector = (*service.Guard)(nil)
	_ GuardChecker     = (*service.Guard)(nil)
)

// ApplicationsQuery is the backend path and reshaping expression behind the applications view.
type ApplicationsQuery struct {
	Path string
	Expr string
}

// DefaultApplicationsQuery lists pending counsellor, psychiatrist and management-team applications.
func DefaultApplicationsQuery() ApplicationsQuery {
	return ApplicationsQuery{
		Path: "/api/admin/applications?status=pending",
		Expr: "data[].{id: id, name: name, role: role, submittedAt: submittedAt}",
	}
}

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T         *TemplateRenderer
	Auth      Authenticator
	Data      DashboardLoader
	Landing   LandingResolver
	Inspector SessionInspector
	AppsQuery ApplicationsQuery
	// InterceptUnauthorized clears the held token and sends the user to sign-in when the
	// backend rejects it. When false the affected view shows an error instead.
	InterceptUnauthorized bool
	IsDev                 bool // Development mode flag for enhanced error reporting
	Logger                *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// heldToken returns the credential for the current request. Guarded views only run after
// the guard admitted a stored token, so a miss here means it vanished mid-request.
func heldToken(r *http.Request) (string, bool) {
	holder := HolderFromContext(r.Context())
	if holder == nil {
		return "", false
	}
	token, ok, err := holder.Read(r.Context())
	if err != nil || !ok {
		return "", false
	}
	return token, true
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta   PageMeta
	Status int
	Fetch  func(ctx context.Context, token string, data map[string]any) error
}

// Page builds base data, runs the fetch with the held token, and renders. Backend
// rejections are intercepted here so every view handles them the same way.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	status := spec.Status
	if status == 0 {
		status = http.StatusOK
	}

	if spec.Fetch != nil {
		token, ok := heldToken(r)
		if !ok {
			navigate(w, r, signInURL(redirectPathForRequest(r)))
			return
		}
		if err := spec.Fetch(r.Context(), token, data); err != nil {
			if h.interceptUnauthorized(w, r, err) {
				return
			}
			v := describeError(err)
			h.logger().WarnContext(r.Context(), "page data unavailable",
				"page", spec.Meta.CurrentPage, "status", v.Status, "error", err)
			data["Error"] = true
			data["ErrorMessage"] = v.Message
			status = v.Status
		}
	}
	h.renderPage(w, r, status, data)
}

// interceptUnauthorized implements the central 401 handling: drop the rejected token and
// restart sign-in with the current path as the return target.
func (h *UIHandlers) interceptUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !h.InterceptUnauthorized || !isBackendUnauthorized(err) {
		return false
	}
	ctx := r.Context()
	if holder := HolderFromContext(ctx); holder != nil {
		if cerr := holder.Clear(ctx); cerr != nil {
			h.logger().WarnContext(ctx, "clear rejected token failed", "error", cerr)
		}
	}
	h.logger().InfoContext(ctx, "backend rejected credential; restarting sign-in", "path", r.URL.Path)
	navigate(w, r, signInURL(redirectPathForRequest(r)))
	return true
}

// renderPage renders the full layout, or for htmx navigations just the content block
// (which carries out-of-band title updates).
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if err := h.T.RenderPartial(w, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<pre class="template-error">` +
			html.EscapeString(context+": "+err.Error()) + `</pre>`))
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
