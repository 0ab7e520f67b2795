package httpx

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	sona "github.com/sakunasanka/Sona-frontend-admin-sub000"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/backend"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/devbackend"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/memory"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// stubHolder is an in-memory TokenHolder for unit tests.
type stubHolder struct {
	token   string
	present bool
	err     error
	cleared bool
}

func (h *stubHolder) Store(_ context.Context, token string) error {
	if h.err != nil {
		return h.err
	}
	h.token, h.present = token, true
	return nil
}

func (h *stubHolder) Read(context.Context) (string, bool, error) {
	return h.token, h.present, h.err
}

func (h *stubHolder) Clear(context.Context) error {
	h.token, h.present, h.cleared = "", false, true
	return nil
}

var _ service.TokenHolder = (*stubHolder)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func embeddedTemplates(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(sona.TemplateFS, TemplatePathFromRoot)
	require.NoError(t, err)
	return sub
}

// testConsole is the full router in front of an in-process dev backend, driven by a
// cookie-keeping client that never follows redirects.
type testConsole struct {
	t       *testing.T
	srv     *httptest.Server
	backend *httptest.Server
	issuer  *devbackend.Issuer
	store   *memory.TokenStore
	client  *http.Client
}

type consoleOption func(*RouterServices)

func withSessions(s *Sessions) consoleOption {
	return func(rs *RouterServices) { rs.Sessions = s }
}

func withoutInterception() consoleOption {
	return func(rs *RouterServices) { rs.InterceptUnauthorized = false }
}

func withSignInLimiter(l *RateLimiter) consoleOption {
	return func(rs *RouterServices) { rs.SignInLimiter = l }
}

func newTestConsole(t *testing.T, opts ...consoleOption) *testConsole {
	t.Helper()
	logger := discardLogger()

	issuer, err := devbackend.NewIssuer(devbackend.Config{SigningKey: []byte("console-test-key")})
	require.NoError(t, err)
	backendSrv := httptest.NewServer(devbackend.NewServer(issuer, logger))
	t.Cleanup(backendSrv.Close)

	client, err := backend.NewClient(backend.Options{BaseURL: backendSrv.URL, Timeout: 5 * time.Second, Logger: logger})
	require.NoError(t, err)

	dash, err := service.NewDashboardService(service.DashboardServiceOptions{Backend: client, Logger: logger})
	require.NoError(t, err)

	store := memory.NewTokenStore()
	guard := service.NewGuard(service.GuardOptions{Logger: logger})
	services := RouterServices{
		Guard:                 guard,
		Inspector:             guard,
		Root:                  service.NewRootResolver(service.RootResolverOptions{Logger: logger}),
		Auth:                  service.NewAuthService(service.AuthServiceOptions{Backend: client, Logger: logger}),
		Dashboard:             dash,
		Sessions:              NewSessions(SessionConfig{Store: store, Logger: logger}),
		InterceptUnauthorized: true,
		TemplateFS:            embeddedTemplates(t),
		Logger:                logger,
	}
	for _, opt := range opts {
		opt(&services)
	}

	router, err := NewRouter(services)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)

	return &testConsole{
		t:       t,
		srv:     srv,
		backend: backendSrv,
		issuer:  issuer,
		store:   store,
		client: &http.Client{
			Jar:     jar,
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testConsole) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *testConsole) get(path string, header http.Header) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.srv.URL+path, nil)
	require.NoError(c.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req)
}

// postForm submits values with the current CSRF token added.
func (c *testConsole) postForm(path string, values url.Values, header http.Header) (*http.Response, string) {
	c.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", c.csrfToken())
	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, strings.NewReader(values.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req)
}

// csrfToken returns the CSRF cookie value, visiting the sign-in page first if needed.
func (c *testConsole) csrfToken() string {
	c.t.Helper()
	if v := c.cookie(DefaultCSRFCookieName); v != "" {
		return v
	}
	resp, _ := c.get(PathSignIn, nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	v := c.cookie(DefaultCSRFCookieName)
	require.NotEmpty(c.t, v)
	return v
}

func (c *testConsole) cookie(name string) string {
	u, err := url.Parse(c.srv.URL)
	require.NoError(c.t, err)
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// hold puts token in the server-side store under a fresh session and hands the browser
// its cookie, as if a sign-in had happened.
func (c *testConsole) hold(token string) string {
	c.t.Helper()
	sid := uuid.NewString()
	require.NoError(c.t, c.store.Save(context.Background(), sid, token))
	u, err := url.Parse(c.srv.URL)
	require.NoError(c.t, err)
	c.client.Jar.SetCookies(u, []*http.Cookie{{Name: DefaultSessionCookie, Value: sid, Path: "/"}})
	return sid
}

func (c *testConsole) issue(email string, exp time.Time) string {
	c.t.Helper()
	for _, u := range devbackend.DefaultUsers() {
		if u.Email == email {
			tok, err := c.issuer.IssueUntil(u, exp)
			require.NoError(c.t, err)
			return tok
		}
	}
	c.t.Fatalf("no dev user %q", email)
	return ""
}

func (c *testConsole) signIn(email, password string) *http.Response {
	c.t.Helper()
	resp, _ := c.postForm(PathSignIn, url.Values{"email": {email}, "password": {password}}, nil)
	return resp
}

func htmxHeader() http.Header {
	h := http.Header{}
	h.Set("Hx-Request", "true")
	return h
}
