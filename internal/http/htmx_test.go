package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMX_RequestDetection(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	if IsHTMX(r) {
		t.Fatal("expected IsHTMX false by default")
	}
	r.Header.Set("Hx-Request", "TRUE")
	if !IsHTMX(r) {
		t.Fatal("expected IsHTMX true")
	}
}

func TestHTMX_WantsPartial(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Hx-Request", "true")
	if !WantsPartial(r) {
		t.Fatal("htmx request should want partial")
	}

	r.Header.Set("Hx-Boosted", "true")
	if WantsPartial(r) {
		t.Fatal("boosted navigation needs the full layout")
	}

	r.Header.Del("Hx-Boosted")
	r.Header.Set("Hx-History-Restore-Request", "true")
	if WantsPartial(r) {
		t.Fatal("history restore needs the full layout")
	}
}

func TestNavigate(t *testing.T) {
	rr := httptest.NewRecorder()
	navigate(rr, httptest.NewRequest(http.MethodGet, "/x", nil), "/signin")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/signin" {
		t.Fatalf("expected 303 to /signin, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Hx-Request", "true")
	navigate(rr, r, "/forbidden")
	if rr.Code != http.StatusNoContent || rr.Header().Get("Hx-Redirect") != "/forbidden" {
		t.Fatalf("expected Hx-Redirect to /forbidden, got %d %q", rr.Code, rr.Header().Get("Hx-Redirect"))
	}
}
