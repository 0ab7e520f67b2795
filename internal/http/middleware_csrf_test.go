package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(seen *string) http.Handler {
	return CSRFProtection(CSRFConfig{Secure: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = GetCSRFToken(r)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFProtection_IssuesTokenOnGet(t *testing.T) {
	var seen string
	rec := httptest.NewRecorder()
	csrfHandler(&seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signin", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, seen)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, DefaultCSRFCookieName, c.Name)
	assert.Equal(t, seen, c.Value)
	assert.True(t, c.Secure)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestCSRFProtection_ReusesExistingCookie(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/signin", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	csrfHandler(&seen).ServeHTTP(rec, req)

	assert.Equal(t, "existing", seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCSRFProtection_UnsafeMethods(t *testing.T) {
	form := func(token string) *http.Request {
		body := url.Values{DefaultCSRFCookieName: {token}}.Encode()
		r := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
		return r
	}

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{"missing token", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/logout", nil)
			r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			return r
		}, http.StatusForbidden},
		{"form token", func() *http.Request { return form("tok") }, http.StatusOK},
		{"mismatched form token", func() *http.Request { return form("other") }, http.StatusForbidden},
		{"header token", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/logout", nil)
			r.Header.Set(DefaultCSRFHeaderName, "tok")
			r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			return r
		}, http.StatusOK},
		{"token in json body is ignored", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(`{"csrf_token":"tok"}`))
			r.Header.Set("Content-Type", "application/json")
			r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			return r
		}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			csrfHandler(nil).ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetCSRFToken_NoMiddleware(t *testing.T) {
	assert.Empty(t, GetCSRFToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}
