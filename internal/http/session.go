package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

const (
	// DefaultSessionCookie names the cookie carrying the browser session id.
	DefaultSessionCookie = "console_sid"
	// DefaultTokenCookie names the cookie carrying the credential itself in cookie mode.
	DefaultTokenCookie = "console_token"
)

// SessionConfig configures how a browser is bound to its held credential.
type SessionConfig struct {
	// Store keeps credentials server-side keyed by session id.
	// When nil the credential is kept in an HttpOnly cookie instead.
	Store ports.TokenStore

	CookieName string
	Domain     string
	Secure     bool
	// MaxAge bounds cookie lifetime. Zero yields a browser-session cookie.
	MaxAge time.Duration

	NewID  func() string
	Logger *slog.Logger
}

// Sessions hands out one TokenHolder per request.
type Sessions struct {
	store  ports.TokenStore
	name   string
	domain string
	secure bool
	maxAge time.Duration
	newID  func() string
	logger *slog.Logger
}

// NewSessions constructs Sessions with defaults applied.
func NewSessions(cfg SessionConfig) *Sessions {
	s := &Sessions{
		store:  cfg.Store,
		name:   cfg.CookieName,
		domain: cfg.Domain,
		secure: cfg.Secure,
		maxAge: cfg.MaxAge,
		newID:  cfg.NewID,
		logger: cfg.Logger,
	}
	if s.name == "" {
		if s.store == nil {
			s.name = DefaultTokenCookie
		} else {
			s.name = DefaultSessionCookie
		}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Middleware attaches the request's TokenHolder to its context.
func (s *Sessions) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetHolderInContext(r.Context(), s.Holder(w, r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Holder returns the TokenHolder bound to this request/response pair.
func (s *Sessions) Holder(w http.ResponseWriter, r *http.Request) service.TokenHolder {
	if s.store == nil {
		return &cookieHolder{s: s, w: w, r: r}
	}
	return &sessionHolder{s: s, w: w, sid: s.sessionID(r)}
}

// sessionID returns the request's session id, ignoring values that are not ids we issued.
func (s *Sessions) sessionID(r *http.Request) string {
	c, err := r.Cookie(s.name)
	if err != nil {
		return ""
	}
	if _, perr := uuid.Parse(c.Value); perr != nil {
		return ""
	}
	return c.Value
}

func (s *Sessions) setCookie(w http.ResponseWriter, value string) {
	c := &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		Domain:   s.domain,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.maxAge > 0 {
		c.MaxAge = int(s.maxAge / time.Second)
	}
	http.SetCookie(w, c)
}

// expireCookie mirrors the attributes used when setting so browsers match and drop it.
func (s *Sessions) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Domain:   s.domain,
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionHolder keys a server-side TokenStore by the session cookie.
// Every Store rotates the session id so a pre-sign-in id is never promoted.
type sessionHolder struct {
	s   *Sessions
	w   http.ResponseWriter
	sid string
}

func (h *sessionHolder) Store(ctx context.Context, token string) error {
	previous := h.sid
	sid := h.s.newID()
	if err := service.NewStoreHolder(h.s.store, sid).Store(ctx, token); err != nil {
		return err
	}
	h.sid = sid
	h.s.setCookie(h.w, sid)

	if previous != "" {
		if err := service.NewStoreHolder(h.s.store, previous).Clear(ctx); err != nil {
			h.s.logger.WarnContext(ctx, "drop rotated session", "error", err)
		}
	}
	return nil
}

func (h *sessionHolder) Read(ctx context.Context) (string, bool, error) {
	return service.NewStoreHolder(h.s.store, h.sid).Read(ctx)
}

func (h *sessionHolder) Clear(ctx context.Context) error {
	if h.sid == "" {
		return nil
	}
	if err := service.NewStoreHolder(h.s.store, h.sid).Clear(ctx); err != nil {
		return err
	}
	h.sid = ""
	h.s.expireCookie(h.w)
	return nil
}

// cookieHolder keeps the credential itself in an HttpOnly cookie.
// Writes made during the request are visible to later reads of the same request.
type cookieHolder struct {
	s       *Sessions
	w       http.ResponseWriter
	r       *http.Request
	written *string
}

func (h *cookieHolder) Store(_ context.Context, token string) error {
	h.s.setCookie(h.w, token)
	h.written = &token
	return nil
}

func (h *cookieHolder) Read(context.Context) (string, bool, error) {
	if h.written != nil {
		return *h.written, *h.written != "", nil
	}
	c, err := h.r.Cookie(h.s.name)
	if err != nil {
		return "", false, nil
	}
	v := strings.TrimSpace(c.Value)
	return v, v != "", nil
}

func (h *cookieHolder) Clear(context.Context) error {
	empty := ""
	h.written = &empty
	h.s.expireCookie(h.w)
	return nil
}
