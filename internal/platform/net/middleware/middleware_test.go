package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func get(h http.Handler, origin, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	h := CORS(CORSOptions{AllowedOrigins: []string{"https://dash.example.com"}})(ok)

	if got := get(h, "https://dash.example.com", "").Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Fatalf("allowed origin header = %q", got)
	}
	if got := get(h, "https://evil.example.com", "").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin got %q", got)
	}
}

func TestCORS_NoOriginsIsPassthrough(t *testing.T) {
	rec := get(CORS(CORSOptions{})(ok), "https://dash.example.com", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("code=%d headers=%v", rec.Code, rec.Header())
	}
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2, time.Hour)(ok)
	for i := range 2 {
		if rec := get(h, "", "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	if rec := get(h, "", "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d", rec.Code)
	}
	if rec := get(h, "", "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("other ip = %d", rec.Code)
	}
}

func TestRateLimitByIP_Disabled(t *testing.T) {
	h := RateLimitByIP(0, 0)(ok)
	for range 5 {
		if rec := get(h, "", "10.0.0.1:1"); rec.Code != http.StatusOK {
			t.Fatalf("code = %d", rec.Code)
		}
	}
}
