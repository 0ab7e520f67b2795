package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	mocks "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/mocks/auth"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestGuard(opts GuardOptions) *Guard {
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	return NewGuard(opts)
}

// credentialCases spans absent, empty, garbage, wrong-shape, and valid inputs.
func credentialCases() map[string]string {
	future := fixedNow.Add(24 * time.Hour)
	return map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"bad base64":      "a.!!!.c",
		"not json":        mocks.RawPayloadToken("hello"),
		"json array":      mocks.RawPayloadToken(`[1,2]`),
		"json null":       mocks.RawPayloadToken(`null`),
		"number role":     mocks.RawPayloadToken(`{"userType": 7}`),
		"string exp":      mocks.RawPayloadToken(`{"userType":"Admin","exp":"soon"}`),
		"admin":           mocks.RoleToken("Admin", future),
		"client":          mocks.RoleToken("Client", future),
		"expired admin":   mocks.RoleToken("Admin", fixedNow.Add(-time.Hour)),
		"missing exp":     mocks.RawPayloadToken(`{"userType":"MT"}`),
		"lowercase admin": mocks.RoleToken("admin", future),
		"management team": mocks.RoleToken("Management Team", future),
		"two segments":    strings.TrimSuffix(mocks.RawPayloadToken(`{"userType":"Admin"}`), ".sig"),
	}
}

func TestGuard_TotalOverInputs(t *testing.T) {
	g := newTestGuard(GuardOptions{})
	valid := map[domainauth.Outcome]bool{
		domainauth.OutcomeRender:    true,
		domainauth.OutcomeSignIn:    true,
		domainauth.OutcomeForbidden: true,
	}
	for name, tok := range credentialCases() {
		for _, req := range []domainauth.ViewRequirement{domainauth.ElevatedView(), domainauth.AnyCredentialView()} {
			holder := mocks.NewMemoryHolder(tok)
			var d domainauth.Decision
			require.NotPanics(t, func() {
				d = g.Check(context.Background(), holder, req, "/dashboard")
			}, name)
			assert.True(t, valid[d.Outcome], "%s: unexpected outcome %s", name, d.Outcome)
			assert.False(t, d.Cleared, "%s: default guard must not clear", name)
			assert.Zero(t, holder.Clears, name)
		}
	}
}

func TestGuard_NoCredentialAlwaysSignIn(t *testing.T) {
	g := newTestGuard(GuardOptions{})
	for _, req := range []domainauth.ViewRequirement{domainauth.ElevatedView(), domainauth.AnyCredentialView()} {
		d := g.Check(context.Background(), mocks.NewMemoryHolder(""), req, "/applications?page=2")
		assert.Equal(t, domainauth.OutcomeSignIn, d.Outcome)
		assert.Equal(t, domainauth.StateNoCredential, d.State)
		assert.Equal(t, "/applications?page=2", d.ReturnTo)
	}
}

func TestGuard_RoleGate(t *testing.T) {
	g := newTestGuard(GuardOptions{})
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		role string
		want domainauth.Outcome
	}{
		{"Admin", domainauth.OutcomeRender},
		{"Management Team", domainauth.OutcomeRender},
		{"MT", domainauth.OutcomeRender},
		{"MT-member", domainauth.OutcomeRender},
		{"Client", domainauth.OutcomeForbidden},
		{"Counsellor", domainauth.OutcomeForbidden},
		{"admin", domainauth.OutcomeForbidden},
		{"", domainauth.OutcomeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			d := g.Decide(domainauth.ElevatedView(), mocks.RoleToken(tt.role, future), true, "/dashboard")
			assert.Equal(t, tt.want, d.Outcome)
			assert.Empty(t, d.ReturnTo)
		})
	}

	t.Run("null role", func(t *testing.T) {
		d := g.Decide(domainauth.ElevatedView(), mocks.RawPayloadToken(`{"userType":null}`), true, "/")
		assert.Equal(t, domainauth.OutcomeForbidden, d.Outcome)
	})
	t.Run("omitted role", func(t *testing.T) {
		d := g.Decide(domainauth.ElevatedView(), mocks.RawPayloadToken(`{"exp": 1}`), true, "/")
		assert.Equal(t, domainauth.OutcomeForbidden, d.Outcome)
	})
}

func TestGuard_NonElevatedViewRendersAnyCredential(t *testing.T) {
	g := newTestGuard(GuardOptions{})
	for _, tok := range []string{"garbage", mocks.RoleToken("Client", fixedNow.Add(time.Hour)), mocks.RoleToken("Admin", fixedNow.Add(-time.Hour))} {
		d := g.Decide(domainauth.AnyCredentialView(), tok, true, "/profile")
		assert.Equal(t, domainauth.OutcomeRender, d.Outcome)
	}
}

func TestGuard_MalformedPolicy(t *testing.T) {
	tok := mocks.RawPayloadToken("{broken")

	d := newTestGuard(GuardOptions{}).Decide(domainauth.ElevatedView(), tok, true, "/dashboard")
	assert.Equal(t, domainauth.OutcomeForbidden, d.Outcome)
	assert.Equal(t, domainauth.StateMalformedCredential, d.State)

	d = newTestGuard(GuardOptions{Malformed: domainauth.MalformedToSignIn}).Decide(domainauth.ElevatedView(), tok, true, "/dashboard")
	assert.Equal(t, domainauth.OutcomeSignIn, d.Outcome)
	assert.Equal(t, "/dashboard", d.ReturnTo)
}

func TestGuard_ExpiryNotCheckedByDefault(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("Admin", fixedNow.Add(-time.Hour)))
	d := newTestGuard(GuardOptions{}).Check(context.Background(), holder, domainauth.ElevatedView(), "/dashboard")

	assert.Equal(t, domainauth.OutcomeRender, d.Outcome)
	assert.Equal(t, domainauth.StateExpiredCredential, d.State)
	_, held := holder.Held()
	assert.True(t, held)
}

func TestGuard_EnforceExpiry(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("Admin", fixedNow.Add(-time.Second)))
	g := newTestGuard(GuardOptions{EnforceExpiry: true})

	d := g.Check(context.Background(), holder, domainauth.ElevatedView(), "/applications")
	assert.Equal(t, domainauth.OutcomeSignIn, d.Outcome)
	assert.Equal(t, "/applications", d.ReturnTo)
	assert.True(t, d.Cleared)

	_, ok, err := holder.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// A live token is untouched.
	live := mocks.NewMemoryHolder(mocks.RoleToken("Admin", fixedNow.Add(time.Minute)))
	d = g.Check(context.Background(), live, domainauth.ElevatedView(), "/applications")
	assert.Equal(t, domainauth.OutcomeRender, d.Outcome)
	assert.Zero(t, live.Clears)
}

func TestGuard_ReadErrorTreatedAsAbsent(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("Admin", fixedNow.Add(time.Hour)))
	holder.ReadErr = errors.New("redis down")

	d := newTestGuard(GuardOptions{}).Check(context.Background(), holder, domainauth.ElevatedView(), "/dashboard")
	assert.Equal(t, domainauth.OutcomeSignIn, d.Outcome)
	assert.Equal(t, domainauth.StateNoCredential, d.State)
}

func TestGuard_AdminFarFutureRenders(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("Admin", fixedNow.AddDate(10, 0, 0)))
	d := newTestGuard(GuardOptions{}).Check(context.Background(), holder, domainauth.ElevatedView(), "/dashboard")

	assert.Equal(t, domainauth.OutcomeRender, d.Outcome)
	assert.Equal(t, domainauth.RoleAdmin, d.Claims.UserType)
}

func TestGuard_ClientFarFutureForbidden(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("Client", fixedNow.AddDate(10, 0, 0)))
	d := newTestGuard(GuardOptions{}).Check(context.Background(), holder, domainauth.ElevatedView(), "/dashboard")
	assert.Equal(t, domainauth.OutcomeForbidden, d.Outcome)
}

func TestDeriveSession(t *testing.T) {
	assert.Equal(t, domainauth.StateNoCredential, DeriveSession("", true, fixedNow).State)
	assert.Equal(t, domainauth.StateNoCredential, DeriveSession("x.y.z", false, fixedNow).State)
	assert.Equal(t, domainauth.StateMalformedCredential, DeriveSession("x", true, fixedNow).State)
	assert.Equal(t, domainauth.StateValidCredential, DeriveSession(mocks.RawPayloadToken(`{"userType":"Client"}`), true, fixedNow).State)

	// exp equal to now is not yet expired.
	atNow := mocks.RoleToken("Admin", fixedNow)
	assert.Equal(t, domainauth.StateValidCredential, DeriveSession(atNow, true, fixedNow).State)
}

func TestGuard_Inspect(t *testing.T) {
	holder := mocks.NewMemoryHolder(mocks.RoleToken("MT", fixedNow.Add(time.Hour)))
	sess := newTestGuard(GuardOptions{}).Inspect(context.Background(), holder)
	assert.Equal(t, domainauth.StateValidCredential, sess.State)
	assert.Equal(t, domainauth.RoleMT, sess.Role())
	assert.Equal(t, "user@example.com", sess.Claims.Email())
}
