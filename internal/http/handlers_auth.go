package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

const maxSignInFormBytes = 1 << 14

func signInMeta() PageMeta {
	return PageMeta{Title: "Sign in · Sona Admin", PageTitle: "Sign in", CurrentPage: PageSignIn}
}

// SignInPage renders the sign-in form.
// GET /signin?redirect_uri=<optional_path>.
func (h *UIHandlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, signInMeta()).
		With("RedirectURI", safeRedirectPath(r.URL.Query().Get(RedirectParam))).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// SignIn exchanges the submitted credentials for a token and sends the user on.
// POST /signin.
func (h *UIHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderUnreadableSignIn(w, r)
		return
	}
	form := signInForm{
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		Password:    r.PostFormValue("password"),
		RedirectURI: r.PostFormValue(RedirectParam),
	}

	holder := HolderFromContext(r.Context())
	if holder == nil {
		h.logger().ErrorContext(r.Context(), "sign-in without session middleware")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err := h.Auth.SignIn(r.Context(), holder, ports.SignInInput{Email: form.Email, Password: form.Password})
	if err != nil {
		v := describeError(err)
		if v.Status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "sign-in failed", "error", err)
		} else {
			h.logger().InfoContext(r.Context(), "sign-in rejected", "status", v.Status)
		}
		h.renderSignInError(w, r, form, v)
		return
	}

	navigate(w, r, postSignInTarget(form.RedirectURI))
}

type signInForm struct {
	Email       string
	Password    string
	RedirectURI string
}

// renderSignInError re-renders the form with the email and return path preserved.
// The password is never echoed back.
// limitSignInForm caps and parses the sign-in body. It must wrap the CSRF check,
// which otherwise parses the form under net/http's 10 MB default.
func (h *UIHandlers) limitSignInForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSignInFormBytes)
		if err := r.ParseForm(); err != nil {
			h.renderUnreadableSignIn(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *UIHandlers) renderUnreadableSignIn(w http.ResponseWriter, r *http.Request) {
	h.renderSignInError(w, r, signInForm{}, errorView{
		Status:  http.StatusBadRequest,
		Message: "The sign-in form could not be read.",
	})
}

func (h *UIHandlers) renderSignInError(w http.ResponseWriter, r *http.Request, form signInForm, v errorView) {
	data := NewTemplateData(r, signInMeta()).
		WithError(v.Message).
		WithFieldErrors(v.Fields).
		With("Email", form.Email).
		With("RedirectURI", safeRedirectPath(form.RedirectURI)).
		Build()
	h.renderPage(w, r, v.Status, data)
}

// Logout clears the held credential and the session cookie.
// POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if holder := HolderFromContext(r.Context()); holder != nil {
		if err := h.Auth.SignOut(r.Context(), holder); err != nil && !errors.Is(err, ports.ErrTokenNotFound) {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}

	// AJAX/HTMX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		IsHTMX(r) ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		if IsHTMX(r) {
			SetHXRedirect(w, PathSignIn)
		}
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": PathSignIn,
		})
		return
	}
	http.Redirect(w, r, PathSignIn, http.StatusSeeOther)
}
