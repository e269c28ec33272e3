package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fetchMetadata(t *testing.T, h *Handler, path string) map[string]any {
	t.Helper()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", path, w.Code)
	}

	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON from %s: %v", path, err)
	}
	return doc
}

func stringSlice(t *testing.T, doc map[string]any, key string) []string {
	t.Helper()
	raw, ok := doc[key].([]any)
	if !ok {
		t.Fatalf("%s missing or not a list: %v", key, doc[key])
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = v.(string)
	}
	return out
}

func TestProtectedResourceMetadataLocalMode(t *testing.T) {
	h := NewHandler(testConfig(), nil)
	doc := fetchMetadata(t, h, MetadataPathProtectedResource)

	if doc["resource"] != "https://gateway.example.com/mcp" {
		t.Errorf("resource = %v", doc["resource"])
	}

	servers := stringSlice(t, doc, "authorization_servers")
	if len(servers) != 1 || servers[0] != "https://gateway.example.com" {
		t.Errorf("authorization_servers = %v, want own issuer only", servers)
	}
}

func TestProtectedResourceMetadataDelegatedMode(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.Domain = "tenant.us.auth0.com"
	cfg.Provider.Audience = "https://api.example.com"

	h := NewHandler(cfg, nil)
	doc := fetchMetadata(t, h, MetadataPathProtectedResource)

	// The configured audience wins as resource identifier so discovery and
	// token validation agree
	if doc["resource"] != "https://api.example.com" {
		t.Errorf("resource = %v", doc["resource"])
	}

	servers := stringSlice(t, doc, "authorization_servers")
	if len(servers) != 1 || servers[0] != "https://tenant.us.auth0.com/" {
		t.Errorf("authorization_servers = %v, want provider issuer only", servers)
	}
}

func TestAuthServerMetadataLocalMode(t *testing.T) {
	h := NewHandler(testConfig(), nil)
	doc := fetchMetadata(t, h, MetadataPathAuthorizationServer)

	if doc["issuer"] != "https://gateway.example.com" {
		t.Errorf("issuer = %v", doc["issuer"])
	}
	if doc["token_endpoint"] != "https://gateway.example.com/oauth/token" {
		t.Errorf("token_endpoint = %v", doc["token_endpoint"])
	}

	grants := stringSlice(t, doc, "grant_types_supported")
	if len(grants) != 1 || grants[0] != GrantTypeClientCredentials {
		t.Errorf("grant_types_supported = %v", grants)
	}
	if _, present := doc["authorization_endpoint"]; present {
		t.Error("local mode must not advertise an authorization endpoint")
	}
	if _, present := doc["registration_endpoint"]; present {
		t.Error("local mode must not advertise a registration endpoint")
	}
}

func TestAuthServerMetadataDelegatedMode(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.Domain = "tenant.us.auth0.com"
	cfg.Provider.Audience = "https://api.example.com"

	h := NewHandler(cfg, nil)
	doc := fetchMetadata(t, h, MetadataPathAuthorizationServer)

	want := map[string]string{
		"issuer":                 "https://tenant.us.auth0.com/",
		"authorization_endpoint": "https://tenant.us.auth0.com/authorize",
		"token_endpoint":         "https://tenant.us.auth0.com/oauth/token",
		"registration_endpoint":  "https://tenant.us.auth0.com/oidc/register",
	}
	for key, expected := range want {
		if doc[key] != expected {
			t.Errorf("%s = %v, want %q", key, doc[key], expected)
		}
	}

	methods := stringSlice(t, doc, "code_challenge_methods_supported")
	found := false
	for _, m := range methods {
		if m == PKCEMethodS256 {
			found = true
		}
	}
	if !found {
		t.Errorf("code_challenge_methods_supported = %v, must include S256", methods)
	}
}

// Discovery documents are computed per request; the same handler config
// always produces documents consistent with the active mode.
func TestMetadataReflectsActiveMode(t *testing.T) {
	local := NewHandler(testConfig(), nil)

	delegatedCfg := testConfig()
	delegatedCfg.Provider.Domain = "tenant.us.auth0.com"
	delegatedCfg.Provider.Audience = "https://api.example.com"
	delegated := NewHandler(delegatedCfg, nil)

	localDoc := fetchMetadata(t, local, MetadataPathAuthorizationServer)
	delegatedDoc := fetchMetadata(t, delegated, MetadataPathAuthorizationServer)

	if localDoc["issuer"] == delegatedDoc["issuer"] {
		t.Error("local and delegated modes must advertise different issuers")
	}
	if _, present := localDoc["code_challenge_methods_supported"]; present {
		t.Error("local mode must not advertise PKCE methods")
	}
}

func TestMetadataRejectsNonGET(t *testing.T) {
	h := NewHandler(testConfig(), nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	for _, path := range []string{MetadataPathProtectedResource, MetadataPathAuthorizationServer} {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d, want 405", path, w.Code)
		}
	}
}
