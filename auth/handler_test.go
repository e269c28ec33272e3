package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/kdata-labs/realestate-mcp/security"
	"github.com/kdata-labs/realestate-mcp/storage/memory"
)

// newTestGateway wires handler, issuer, store and guard together the way
// the server does, and returns the mux plus the store for assertions.
func newTestGateway(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()

	cfg := testConfig()
	store := memory.NewWithInterval(0)
	t.Cleanup(store.Stop)

	issuer, err := NewIssuer(cfg, store)
	if err != nil {
		t.Fatalf("NewIssuer() error: %v", err)
	}

	handler := NewHandler(cfg, issuer)
	guard := NewGuard(cfg, store, nil)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/mcp", guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	return mux, store
}

func postToken(t *testing.T, mux *http.ServeMux, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestTokenEndpointRoundTrip(t *testing.T) {
	mux, _ := newTestGateway(t)

	w := postToken(t, mux, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"abc"},
		"client_secret": {"xyz"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("token response must not be cacheable, Cache-Control = %q", cc)
	}

	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid token response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.ExpiresIn != 3600 || resp.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", resp)
	}

	// The freshly issued token must be accepted by the guard
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	pw := httptest.NewRecorder()
	mux.ServeHTTP(pw, r)

	if pw.Code != http.StatusOK {
		t.Errorf("protected endpoint status = %d, want 200", pw.Code)
	}
}

func TestTokenEndpointUniformRejection(t *testing.T) {
	mux, store := newTestGateway(t)

	wrongSecret := postToken(t, mux, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"abc"},
		"client_secret": {"nope"},
	})
	wrongID := postToken(t, mux, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"nope"},
		"client_secret": {"xyz"},
	})

	if wrongSecret.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", wrongSecret.Code)
	}
	if wrongSecret.Code != wrongID.Code {
		t.Error("wrong secret and wrong client_id must return the same status")
	}
	if wrongSecret.Body.String() != wrongID.Body.String() {
		t.Errorf("rejection bodies differ: %q vs %q", wrongSecret.Body.String(), wrongID.Body.String())
	}

	var errResp map[string]string
	if err := json.Unmarshal(wrongSecret.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid error response: %v", err)
	}
	if errResp["error"] != ErrorCodeInvalidGrant {
		t.Errorf("error = %q, want %q", errResp["error"], ErrorCodeInvalidGrant)
	}

	if store.Count() != 0 {
		t.Errorf("failed issuance left %d records in the store", store.Count())
	}
}

func TestTokenEndpointWrongGrantType(t *testing.T) {
	mux, _ := newTestGateway(t)

	w := postToken(t, mux, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"abc"},
		"client_secret": {"xyz"},
	})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrorCodeInvalidGrant) {
		t.Errorf("body = %q, want invalid_grant", w.Body.String())
	}
}

func TestTokenEndpointMethodNotAllowed(t *testing.T) {
	mux, _ := newTestGateway(t)

	r := httptest.NewRequest(http.MethodGet, "/oauth/token", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestTokenEndpointRateLimit(t *testing.T) {
	cfg := testConfig()
	store := memory.NewWithInterval(0)
	defer store.Stop()

	issuer, err := NewIssuer(cfg, store)
	if err != nil {
		t.Fatalf("NewIssuer() error: %v", err)
	}

	handler := NewHandler(cfg, issuer)
	rl := security.NewRateLimiterWithConfig(1, 1, 0, nil)
	defer rl.Stop()
	handler.SetRateLimiter(rl, false, 0)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"abc"},
		"client_secret": {"xyz"},
	}

	first := postToken(t, mux, form)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := postToken(t, mux, form)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("rate limited response missing Retry-After")
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestGateway(t)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %q", w.Body.String())
	}
}
