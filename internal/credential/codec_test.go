package credential

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

func tokenWithPayload(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".c2ln"
}

func TestDecode_ValidClaims(t *testing.T) {
	claims, err := Decode(tokenWithPayload(`{"userType":"Admin","exp":4102444800,"sub":"u-1","email":"a@example.com"}`))
	require.NoError(t, err)

	assert.Equal(t, domainauth.RoleAdmin, claims.UserType)
	assert.True(t, claims.HasExp)
	assert.Equal(t, int64(4102444800), claims.Exp)
	assert.Equal(t, "u-1", claims.Subject())
	assert.Equal(t, "a@example.com", claims.Email())
}

func TestDecode_URLSafeAlphabetAndPadding(t *testing.T) {
	// "???" encodes to "Pz8/" in the standard alphabet and "Pz8_" in the URL-safe one.
	payload := `{"userType":"MT","note":"???"}`
	urlSafe := "h." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".s"
	padded := "h." + base64.URLEncoding.EncodeToString([]byte(payload)) + ".s"
	standard := "h." + base64.StdEncoding.EncodeToString([]byte(payload)) + ".s"

	for _, tok := range []string{urlSafe, padded, standard} {
		claims, err := Decode(tok)
		require.NoError(t, err, tok)
		assert.Equal(t, domainauth.RoleMT, claims.UserType)
		assert.Equal(t, "???", claims.Fields["note"])
	}
}

func TestDecode_CompletePadding(t *testing.T) {
	// 17 and 19 byte payloads need one and two pad characters respectively.
	for _, payload := range []string{`{"userType":"MT"}`, `{"userType":"MTxy"}`} {
		tok := "h." + base64.URLEncoding.EncodeToString([]byte(payload)) + ".s"
		require.Contains(t, tok, "=.")
		_, err := Decode(tok)
		require.NoError(t, err, tok)
	}
}

func TestDecode_TrailingWhitespaceIsAllowed(t *testing.T) {
	claims, err := Decode(tokenWithPayload("{\"userType\":\"Admin\"} \n\t"))
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, claims.UserType)
}

func TestDecode_TwoSegmentsIsEnough(t *testing.T) {
	tok := "h." + base64.RawURLEncoding.EncodeToString([]byte(`{"userType":"Admin"}`))
	claims, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, claims.UserType)
	assert.False(t, claims.HasExp)
}

func TestDecode_Failures(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no dots":          "garbage",
		"bad base64":       "h.!!!!.s",
		"impossible len":   "h.abcde.s",
		"not json":         tokenWithPayload("hello"),
		"json array":       tokenWithPayload(`["userType","Admin"]`),
		"json number":      tokenWithPayload(`5`),
		"json null":        tokenWithPayload(`null`),
		"json string":      tokenWithPayload(`"Admin"`),
		"trailing garbage": tokenWithPayload(`{"userType":"Admin"} {}`),
		"trailing word":    tokenWithPayload(`{"userType":"Admin"} x`),
		"stray brace":      tokenWithPayload(`{"userType":"Admin"}}`),
		"stray bracket":    tokenWithPayload(`{"userType":"Admin"}]`),
		"extra padding":    "h." + base64.URLEncoding.EncodeToString([]byte(`{"userType":"MT"}`)) + "=.s",
		"three pads":       "h." + base64.RawURLEncoding.EncodeToString([]byte(`{"userType":"MT"}`)) + "===.s",
		"invalid utf8":     "h." + base64.RawURLEncoding.EncodeToString([]byte{'{', '"', 0xff, '"', ':', '1', '}'}) + ".s",
		"empty claims":     "h..s",
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := Decode(tok)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, domainauth.Claims{}, claims)
		})
	}
}

func TestDecode_ClaimShapes(t *testing.T) {
	t.Run("non-string userType is ignored", func(t *testing.T) {
		claims, err := Decode(tokenWithPayload(`{"userType":null,"exp":1}`))
		require.NoError(t, err)
		assert.Equal(t, domainauth.Role(""), claims.UserType)
	})

	t.Run("string exp is not an expiry", func(t *testing.T) {
		claims, err := Decode(tokenWithPayload(`{"userType":"Admin","exp":"1700000000"}`))
		require.NoError(t, err)
		assert.False(t, claims.HasExp)
	})

	t.Run("fractional exp truncates", func(t *testing.T) {
		claims, err := Decode(tokenWithPayload(`{"exp":1700000000.9}`))
		require.NoError(t, err)
		assert.True(t, claims.HasExp)
		assert.Equal(t, int64(1700000000), claims.Exp)
	})

	t.Run("huge exp saturates", func(t *testing.T) {
		claims, err := Decode(tokenWithPayload(`{"exp":1e300}`))
		require.NoError(t, err)
		assert.True(t, claims.HasExp)
		assert.Positive(t, claims.Exp)
	})

	t.Run("nested claims survive", func(t *testing.T) {
		fields, err := DecodeFields(tokenWithPayload(`{"profile":{"name":"Sam"}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Sam"}, fields["profile"])
	})
}

func TestDecode_Idempotent(t *testing.T) {
	tok := tokenWithPayload(`{"userType":"MT-member","exp":4102444800,"extra":[1,2,3]}`)

	first, err := Decode(tok)
	require.NoError(t, err)
	second, err := Decode(tok)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func FuzzDecode(f *testing.F) {
	f.Add("")
	f.Add("a.b.c")
	f.Add(tokenWithPayload(`{"userType":"Admin","exp":1}`))
	f.Fuzz(func(t *testing.T, tok string) {
		claims, err := Decode(tok)
		if err != nil {
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, domainauth.Claims{}, claims)
		}
	})
}
