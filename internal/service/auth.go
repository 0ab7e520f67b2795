package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/credential"
	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	apperrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend ports.Backend
	// Verifier is optional. When set, tokens issued at sign-in must carry a valid signature.
	Verifier ports.SignatureVerifier
	Logger   *slog.Logger
}

// AuthService runs sign-in and sign-out against the backend and the caller's token holder.
type AuthService struct {
	backend  ports.Backend
	verifier ports.SignatureVerifier
	logger   *slog.Logger
}

// ErrUnverifiedToken is returned when the backend issued a token whose signature does not check out.
var ErrUnverifiedToken = errors.New("issued token failed signature verification")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{backend: opts.Backend, verifier: opts.Verifier, logger: logger}
}

// SignIn exchanges credentials for a token and stores it in holder.
// The token must decode; role is not checked here, the guard does that per view.
func (s *AuthService) SignIn(ctx context.Context, holder TokenHolder, in ports.SignInInput) (domainauth.Claims, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return domainauth.Claims{}, apperrors.ValidationField("email", "email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domainauth.Claims{}, apperrors.ValidationField("email", "email is not valid")
	}
	if in.Password == "" {
		return domainauth.Claims{}, apperrors.ValidationField("password", "password is required")
	}

	token, err := s.backend.SignIn(ctx, in)
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("backend sign-in: %w", err)
	}

	if s.verifier != nil {
		if verr := s.verifier.Verify(ctx, token); verr != nil {
			s.logger.WarnContext(ctx, "issued token failed verification", "error", verr)
			return domainauth.Claims{}, fmt.Errorf("%w: %w", ErrUnverifiedToken, verr)
		}
	}

	claims, err := credential.Decode(token)
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("decode issued token: %w", err)
	}

	if err := holder.Store(ctx, token); err != nil {
		return domainauth.Claims{}, err
	}
	s.logger.InfoContext(ctx, "signed in", "subject", claims.Subject(), "user_type", string(claims.UserType))
	return claims, nil
}

// SignOut clears the holder.
func (s *AuthService) SignOut(ctx context.Context, holder TokenHolder) error {
	if holder == nil {
		return nil
	}
	return holder.Clear(ctx)
}
