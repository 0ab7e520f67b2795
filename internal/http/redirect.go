package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// safeRedirectPath returns candidate when it is a same-origin relative path, else "".
// Paths that would loop back through sign-in or logout are rejected as well.
func safeRedirectPath(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || !strings.HasPrefix(candidate, "/") {
		return ""
	}
	// Browsers treat "//host" and "/\host" as scheme-relative.
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	switch u.Path {
	case PathSignIn, PathLogout:
		return ""
	}
	return candidate
}

// redirectPathForRequest is the location a guarded request should return to after sign-in.
// For htmx fragment requests that is the page the user was on, not the fragment URL.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// signInURL builds the sign-in location carrying returnTo as redirect context.
func signInURL(returnTo string) string {
	if returnTo = safeRedirectPath(returnTo); returnTo == "" {
		return PathSignIn
	}
	u := url.URL{Path: PathSignIn}
	q := url.Values{}
	q.Set(RedirectParam, returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}

// postSignInTarget picks where a successful sign-in lands.
func postSignInTarget(raw string) string {
	if target := safeRedirectPath(raw); target != "" && target != PathRoot {
		return target
	}
	return PathDashboard
}
