// Package backend is the HTTP client for the counselling platform REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultSignInPath = "/api/auth/signin"
	// DefaultTokenExpr finds the token in the sign-in response body shapes the backend has used.
	DefaultTokenExpr = "token || data.token || accessToken || data.accessToken"
	maxResponseBytes = 4 << 20
)

var _ ports.Backend = (*Client)(nil)

// ErrCrossHostRedirect is returned when the backend redirects an authenticated
// request to another origin. The bearer transport would re-attach the credential there.
var ErrCrossHostRedirect = errors.New("backend redirected an authenticated request to another host")

// Options configures a backend Client.
type Options struct {
	BaseURL    string
	SignInPath string
	// TokenExpr is a JMESPath expression locating the token in the sign-in response.
	TokenExpr  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// Client calls the backend with the caller's bearer credential attached.
type Client struct {
	base       *url.URL
	signInPath string
	tokenExpr  string
	http       *http.Client
	metrics    statsd.Sink
	logger     *slog.Logger
}

// NewClient validates options and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base URL must be http or https, got %q", base.Scheme)
	}

	exprSrc := opts.TokenExpr
	if strings.TrimSpace(exprSrc) == "" {
		exprSrc = DefaultTokenExpr
	}
	if _, err := jmespath.Compile(exprSrc); err != nil {
		return nil, fmt.Errorf("compile token expression: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	signInPath := opts.SignInPath
	if signInPath == "" {
		signInPath = defaultSignInPath
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		signInPath: signInPath,
		tokenExpr:  exprSrc,
		http:       hc,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// SignIn posts the credentials and extracts the bearer token from the response.
func (c *Client) SignIn(ctx context.Context, in ports.SignInInput) (string, error) {
	body, err := json.Marshal(map[string]string{"email": in.Email, "password": in.Password})
	if err != nil {
		return "", fmt.Errorf("marshal sign-in body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(c.signInPath), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.do(c.http, req, c.signInPath)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", ports.ErrInvalidCredentials
	case status < 200 || status > 299:
		return "", &StatusError{Path: c.signInPath, StatusCode: status}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode sign-in response: %w", err)
	}
	found, err := jmespath.Search(c.tokenExpr, doc)
	if err != nil {
		return "", fmt.Errorf("search sign-in response: %w", err)
	}
	token, ok := found.(string)
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("sign-in response did not contain a token")
	}
	return token, nil
}

// GetJSON issues an authenticated GET. A 401 maps to ports.ErrBackendUnauthorized.
func (c *Client) GetJSON(ctx context.Context, token, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.do(c.bearerClient(token), req, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ports.ErrBackendUnauthorized
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Path: path, StatusCode: status}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("backend %s returned invalid JSON", path)
	}
	return json.RawMessage(raw), nil
}

// bearerClient wraps the base client so every request carries the credential.
// An empty token sends the request unauthenticated.
func (c *Client) bearerClient(token string) *http.Client {
	if token == "" {
		return c.http
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:       c.http.Timeout,
		CheckRedirect: c.sameOriginRedirect,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
}

func (c *Client) sameOriginRedirect(req *http.Request, via []*http.Request) error {
	origin := via[0].URL
	if req.URL.Scheme != origin.Scheme || req.URL.Host != origin.Host {
		return fmt.Errorf("%w: %s", ErrCrossHostRedirect, req.URL.Host)
	}
	if c.http.CheckRedirect != nil {
		return c.http.CheckRedirect(req, via)
	}
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return nil
}

func (c *Client) do(hc *http.Client, req *http.Request, path string) ([]byte, int, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.observe(path, "error", time.Since(start))
		return nil, 0, fmt.Errorf("backend %s %s: %w", req.Method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(req.Context(), "close backend response body", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(path, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read backend %s response: %w", path, err)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) observe(path, status string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	tags := map[string]string{"path": routeTag(path), "status": status}
	c.metrics.Timing("backend.request", d, tags)
	c.metrics.Count("backend.requests", 1, tags)
}

// routeTag drops the query string so metric cardinality stays bounded.
func routeTag(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() || ref.Host != "" {
		// Only paths under the configured base are allowed.
		ref = &url.URL{Path: "/"}
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

// StatusError reports a non-success backend status other than 401.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Path, e.StatusCode)
}
