package httpx

import (
	"errors"
	"net/http"
	"time"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	State         string     `json:"state"`
	Role          string     `json:"role,omitempty"`
	Elevated      bool       `json:"elevated"`
	Subject       string     `json:"subject,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// SessionAPI reports the admitted session for page scripts. The token itself is never
// returned.
// GET /api/session.
func (h *UIHandlers) SessionAPI(w http.ResponseWriter, r *http.Request) {
	session, _ := GetSessionFromContext(r.Context())
	resp := sessionResponse{
		Authenticated: session.State == domainauth.StateValidCredential,
		State:         string(session.State),
	}
	if u := userViewFor(session); u != nil {
		resp.Role = u.Role
		resp.Elevated = u.Elevated
		resp.Subject = u.Subject
		resp.Email = u.Email
		if !u.ExpiresAt.IsZero() {
			exp := u.ExpiresAt
			resp.ExpiresAt = &exp
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// DashboardAPI returns the dashboard view-model as JSON for client-side refreshes.
// GET /api/dashboard.
func (h *UIHandlers) DashboardAPI(w http.ResponseWriter, r *http.Request) {
	token, ok := heldToken(r)
	if !ok {
		denySignIn(w, r, "")
		return
	}
	view, err := h.Data.Load(r.Context(), token)
	if err != nil {
		if isBackendUnauthorized(err) && h.InterceptUnauthorized {
			if holder := HolderFromContext(r.Context()); holder != nil {
				if cerr := holder.Clear(r.Context()); cerr != nil {
					h.logger().WarnContext(r.Context(), "clear rejected token failed", "error", cerr)
				}
			}
		}
		v := describeError(err)
		WriteError(w, ErrorParams{Code: v.Status, ErrCode: "dashboard_unavailable", Err: errors.New(v.Message)})
		return
	}
	WriteJSON(w, http.StatusOK, view)
}
