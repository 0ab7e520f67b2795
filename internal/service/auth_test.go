package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	apperrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/mocks"
	mockauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/mocks/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

func TestNewAuthService(t *testing.T) {
	backend := &mockauth.StubBackend{}
	svc := NewAuthService(AuthServiceOptions{Backend: backend})

	require.NotNil(t, svc)
	assert.Equal(t, backend, svc.backend)
	assert.Nil(t, svc.verifier)
	assert.NotNil(t, svc.logger)
}

func TestAuthService_SignInStoresToken(t *testing.T) {
	tok := mockauth.RoleToken("Admin", time.Now().Add(time.Hour))
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	backend.EXPECT().
		SignIn(gomock.Any(), ports.SignInInput{Email: "admin@example.com", Password: "pw"}).
		Return(tok, nil)

	holder := mockauth.NewMemoryHolder("")
	svc := NewAuthService(AuthServiceOptions{Backend: backend})

	claims, err := svc.SignIn(context.Background(), holder, ports.SignInInput{Email: "  admin@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, claims.UserType)

	held, ok := holder.Held()
	assert.True(t, ok)
	assert.Equal(t, tok, held)
}

func TestAuthService_SignInValidation(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{Backend: &mockauth.StubBackend{}})

	tests := []struct {
		name  string
		in    ports.SignInInput
		field string
	}{
		{"missing email", ports.SignInInput{Password: "pw"}, "email"},
		{"bad email", ports.SignInInput{Email: "nope", Password: "pw"}, "email"},
		{"missing password", ports.SignInInput{Email: "a@example.com"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), mockauth.NewMemoryHolder(""), tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
		})
	}
}

func TestAuthService_SignInBackendRejects(t *testing.T) {
	holder := mockauth.NewMemoryHolder("")
	svc := NewAuthService(AuthServiceOptions{Backend: &mockauth.StubBackend{}})

	_, err := svc.SignIn(context.Background(), holder, ports.SignInInput{Email: "a@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)
	assert.Zero(t, holder.Stores)
}

func TestAuthService_SignInUndecodableToken(t *testing.T) {
	holder := mockauth.NewMemoryHolder("")
	backend := &mockauth.StubBackend{SignInFunc: func(context.Context, ports.SignInInput) (string, error) {
		return "opaque-session-id", nil
	}}
	svc := NewAuthService(AuthServiceOptions{Backend: backend})

	_, err := svc.SignIn(context.Background(), holder, ports.SignInInput{Email: "a@example.com", Password: "pw"})
	require.Error(t, err)
	assert.Zero(t, holder.Stores)
}

func TestAuthService_SignInVerifier(t *testing.T) {
	tok := mockauth.RoleToken("MT", time.Now().Add(time.Hour))
	backend := &mockauth.StubBackend{SignInFunc: func(context.Context, ports.SignInInput) (string, error) {
		return tok, nil
	}}
	in := ports.SignInInput{Email: "mt@example.com", Password: "pw"}

	t.Run("rejected", func(t *testing.T) {
		holder := mockauth.NewMemoryHolder("")
		svc := NewAuthService(AuthServiceOptions{Backend: backend, Verifier: mockauth.StaticVerifier{Err: errors.New("bad sig")}})
		_, err := svc.SignIn(context.Background(), holder, in)
		require.ErrorIs(t, err, ErrUnverifiedToken)
		assert.Zero(t, holder.Stores)
	})

	t.Run("accepted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := mocks.NewMockSignatureVerifier(ctrl)
		verifier.EXPECT().Verify(gomock.Any(), tok).Return(nil)

		holder := mockauth.NewMemoryHolder("")
		svc := NewAuthService(AuthServiceOptions{Backend: backend, Verifier: verifier})
		_, err := svc.SignIn(context.Background(), holder, in)
		require.NoError(t, err)
		assert.Equal(t, 1, holder.Stores)
	})
}

func TestAuthService_SignInStoreFailure(t *testing.T) {
	holder := mockauth.NewMemoryHolder("")
	holder.StoreErr = errors.New("store down")
	backend := &mockauth.StubBackend{SignInFunc: func(context.Context, ports.SignInInput) (string, error) {
		return mockauth.RoleToken("Admin", time.Now().Add(time.Hour)), nil
	}}

	_, err := NewAuthService(AuthServiceOptions{Backend: backend}).
		SignIn(context.Background(), holder, ports.SignInInput{Email: "a@example.com", Password: "pw"})
	require.ErrorIs(t, err, holder.StoreErr)
}

func TestAuthService_SignOut(t *testing.T) {
	holder := mockauth.NewMemoryHolder("tok")
	svc := NewAuthService(AuthServiceOptions{Backend: &mockauth.StubBackend{}})

	require.NoError(t, svc.SignOut(context.Background(), holder))
	_, ok := holder.Held()
	assert.False(t, ok)
	require.NoError(t, svc.SignOut(context.Background(), nil))
}
