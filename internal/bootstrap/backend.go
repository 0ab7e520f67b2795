package bootstrap

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/backend"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/devbackend"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/oidc"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

const devJWKSPath = "/.well-known/jwks.json"

// BackendDeps groups the inputs for BuildBackend.
type BackendDeps struct {
	Config  *config.AppConfig
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// BackendBundle is the platform API client plus what came with it.
type BackendBundle struct {
	Client *backend.Client
	// Verifier is nil unless signatures are checked at sign-in.
	Verifier ports.SignatureVerifier
	// DevServer is the in-process backend in mock mode; nil otherwise.
	DevServer *http.Server
}

// Close stops the in-process dev backend, if any.
func (b *BackendBundle) Close(ctx context.Context) error {
	if b == nil || b.DevServer == nil {
		return nil
	}
	return b.DevServer.Shutdown(ctx)
}

// BuildBackend returns the platform API client. In mock mode it first starts the dev
// backend on a loopback port and points the client at it.
func BuildBackend(deps BackendDeps) (*BackendBundle, error) {
	if deps.Config == nil {
		return nil, errors.New("backend config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config.Backend
	bundle := &BackendBundle{}

	baseURL := cfg.BaseURL
	jwksURL := cfg.JWKSURL
	if deps.Config.Auth.Mode == config.AuthModeMock {
		dev, url, devJWKS, err := startDevBackend(deps.Config.Auth.DevBackend, logger)
		if err != nil {
			return nil, err
		}
		bundle.DevServer = dev
		baseURL = url
		if jwksURL == "" {
			jwksURL = devJWKS
		}
	}

	client, err := backend.NewClient(backend.Options{
		BaseURL:    baseURL,
		SignInPath: cfg.SignInPath,
		TokenExpr:  cfg.TokenExpr,
		Timeout:    cfg.Timeout,
		Metrics:    deps.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("backend client: %w", err), bundle.Close(context.Background()))
	}
	bundle.Client = client

	if jwksURL != "" {
		v, verr := oidc.NewKeySetVerifier(oidc.KeySetConfig{JWKSURL: jwksURL})
		if verr != nil {
			return nil, errors.Join(fmt.Errorf("signature verifier: %w", verr), bundle.Close(context.Background()))
		}
		bundle.Verifier = v
		logger.Info("sign-in tokens will be signature checked", "jwks_url", jwksURL)
	}
	return bundle, nil
}

// startDevBackend serves the dev backend on 127.0.0.1. Without a configured signing key
// tokens are RS256 and the returned JWKS URL lets sign-in verify them.
func startDevBackend(cfg config.DevBackendConfig, logger *slog.Logger) (*http.Server, string, string, error) {
	users, err := devUsers(cfg)
	if err != nil {
		return nil, "", "", err
	}
	issuerCfg := devbackend.Config{Users: users, TokenTTL: cfg.TokenTTL, Issuer: "sona-dev-backend"}
	rsaMode := cfg.SigningKey == ""
	if rsaMode {
		key, kerr := rsa.GenerateKey(rand.Reader, 2048)
		if kerr != nil {
			return nil, "", "", fmt.Errorf("generate dev signing key: %w", kerr)
		}
		issuerCfg.RSAKey = key
		issuerCfg.KeyID = "dev-1"
	} else {
		issuerCfg.SigningKey = []byte(cfg.SigningKey)
	}
	issuer, err := devbackend.NewIssuer(issuerCfg)
	if err != nil {
		return nil, "", "", fmt.Errorf("dev backend issuer: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", "", fmt.Errorf("dev backend listen: %w", err)
	}
	srv := &http.Server{
		Handler:           devbackend.NewServer(issuer, logger.With("component", "dev_backend")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if serr := srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			logger.Error("dev backend stopped", "error", serr)
		}
	}()

	base := "http://" + ln.Addr().String()
	logger.Warn("AUTH_MODE=mock: serving the dev backend in-process", "addr", ln.Addr().String(), "users", len(users))
	jwks := ""
	if rsaMode {
		jwks = base + devJWKSPath
	}
	return srv, base, jwks, nil
}

func devUsers(cfg config.DevBackendConfig) ([]devbackend.User, error) {
	parsed, err := cfg.ParsedUsers()
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return devbackend.DefaultUsers(), nil
	}
	out := make([]devbackend.User, 0, len(parsed))
	for _, u := range parsed {
		local, _, _ := strings.Cut(u.Email, "@")
		out = append(out, devbackend.User{
			Subject:  "dev-" + local,
			Email:    u.Email,
			Password: u.Password,
			UserType: u.UserType,
		})
	}
	return out, nil
}
