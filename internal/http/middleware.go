package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
// Health probes are logged at debug to keep them out of normal output.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			switch {
			case ww.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
				level = slog.LevelDebug
			}
			logger.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Bool("htmx", IsHTMX(r)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // recover value compared by identity
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// isAPIRequest reports whether the caller expects JSON rather than a page.
func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// GuardChecker is the route guard as the HTTP layer consumes it.
type GuardChecker interface {
	Check(
		ctx context.Context,
		holder service.TokenHolder,
		req domainauth.ViewRequirement,
		returnTo string,
	) domainauth.Decision
}

// RequireView gates next behind the guard. On render the admitted session is put in the
// request context; otherwise the caller is sent to sign-in or forbidden. API routes get
// 401/403 JSON instead of a redirect.
func RequireView(g GuardChecker, req domainauth.ViewRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			d := g.Check(ctx, HolderFromContext(ctx), req, redirectPathForRequest(r))

			switch d.Outcome {
			case domainauth.OutcomeRender:
				ctx = SetSessionInContext(ctx, domainauth.Session{State: d.State, Claims: d.Claims})
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.OutcomeSignIn:
				denySignIn(w, r, d.ReturnTo)
			default:
				denyForbidden(w, r)
			}
		})
	}
}

func denySignIn(w http.ResponseWriter, r *http.Request, returnTo string) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	navigate(w, r, signInURL(returnTo))
}

func denyForbidden(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	navigate(w, r, PathForbidden)
}
