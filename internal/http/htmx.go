package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial reports whether only the main fragment should be rendered.
// Boosted navigations and history restores still get the full layout.
func WantsPartial(r *http.Request) bool {
	if !IsHTMX(r) {
		return false
	}
	return !strings.EqualFold(r.Header.Get("Hx-Boosted"), "true") &&
		!strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// SetHXRedirect instructs htmx to navigate the browser to url.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger sets an Hx-Trigger header firing event with detail on the client.
func SetHXTrigger(w http.ResponseWriter, event string, detail any) {
	b, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// navigate sends the browser to target: a 303 for regular requests, Hx-Redirect for htmx
// (which would otherwise swap the redirected page into the current fragment).
func navigate(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
