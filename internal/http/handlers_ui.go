package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

// Root sends the visitor to sign-in, the dashboard, or forbidden.
// GET /{$}.
func (h *UIHandlers) Root(w http.ResponseWriter, r *http.Request) {
	d := h.Landing.Resolve(r.Context(), HolderFromContext(r.Context()))
	switch d.Outcome {
	case domainauth.OutcomeDashboard:
		navigate(w, r, PathDashboard)
	case domainauth.OutcomeForbidden:
		navigate(w, r, PathForbidden)
	default:
		navigate(w, r, PathSignIn)
	}
}

// Dashboard renders the aggregated widget view.
// GET /dashboard.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Dashboard · Sona Admin", PageTitle: "Dashboard", CurrentPage: PageDashboard},
		Fetch: func(ctx context.Context, token string, data map[string]any) error {
			view, err := h.Data.Load(ctx, token)
			if err != nil {
				return err
			}
			data["Dashboard"] = view
			return nil
		},
	})
}

// Applications lists pending practitioner applications.
// GET /applications.
func (h *UIHandlers) Applications(w http.ResponseWriter, r *http.Request) {
	q := h.AppsQuery
	if q.Path == "" {
		q = DefaultApplicationsQuery()
	}
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Applications · Sona Admin", PageTitle: "Pending applications", CurrentPage: PageApplications},
		Fetch: func(ctx context.Context, token string, data map[string]any) error {
			rows, err := h.Data.Fetch(ctx, token, q.Path, q.Expr)
			if err != nil {
				return err
			}
			data["Applications"] = rows
			return nil
		},
	})
}

// Profile shows what the held credential says about the signed-in user. It is open to
// every credential holder, elevated or not.
// GET /profile.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSessionFromContext(r.Context())
	data := basePageData(r, PageMeta{Title: "Profile · Sona Admin", PageTitle: "Your profile", CurrentPage: PageProfile})
	data["SessionState"] = string(session.State)
	data["Claims"] = session.Claims.Fields
	h.renderPage(w, r, http.StatusOK, data)
}

// Forbidden explains that the signed-in role cannot open admin views.
// GET /forbidden.
func (h *UIHandlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "Access denied · Sona Admin", PageTitle: "Access denied", CurrentPage: PageForbidden})
	if h.Inspector != nil {
		if s := h.Inspector.Inspect(r.Context(), HolderFromContext(r.Context())); s.State == domainauth.StateValidCredential {
			data["User"] = userViewFor(s)
			data["IsAuthenticated"] = true
		}
	}
	h.renderPage(w, r, http.StatusForbidden, data)
}

// NotFound renders the 404 page for unmatched paths.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
		return
	}
	data := basePageData(r, PageMeta{Title: "Not found · Sona Admin", PageTitle: "Page not found", CurrentPage: PageNotFound})
	h.renderPage(w, r, http.StatusNotFound, data)
}
