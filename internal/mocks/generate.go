// Package mocks provides gomock-generated doubles for the console's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockTokenStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "sid").Return("", ports.ErrTokenNotFound)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports TokenStore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=backend_mock.go github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports Backend

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=signature_verifier_mock.go github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports SignatureVerifier
