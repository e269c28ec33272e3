package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.AuthEnabled {
		t.Error("auth must default to disabled")
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL)
	}
	if cfg.ListenAddr() != "0.0.0.0:8000" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MCP_AUTH_ENABLED", "true")
	t.Setenv("MCP_BASE_URL", "https://gateway.example.com")
	t.Setenv("OAUTH_CLIENT_ID", "abc")
	t.Setenv("OAUTH_CLIENT_SECRET", "xyz")
	t.Setenv("OAUTH_TOKEN_TTL", "600")
	t.Setenv("MCP_PORT", "9000")
	t.Setenv("DATA_GO_KR_API_KEY", "molit-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.AuthEnabled {
		t.Error("AuthEnabled = false")
	}
	if cfg.TokenTTL != 10*time.Minute {
		t.Errorf("TokenTTL = %v, want 10m", cfg.TokenTTL)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DataGoKrAPIKey != "molit-key" {
		t.Errorf("DataGoKrAPIKey = %q", cfg.DataGoKrAPIKey)
	}
}

func TestLoadFatalOnBrokenDelegation(t *testing.T) {
	t.Setenv("MCP_AUTH_ENABLED", "true")
	t.Setenv("MCP_BASE_URL", "https://gateway.example.com")
	t.Setenv("OAUTH_CLIENT_ID", "abc")
	t.Setenv("OAUTH_CLIENT_SECRET", "xyz")
	// Audience without a provider domain must refuse to start
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected startup error for audience without provider domain")
	}
}

func TestAuthConfigDerivation(t *testing.T) {
	t.Setenv("MCP_AUTH_ENABLED", "true")
	t.Setenv("MCP_BASE_URL", "https://gateway.example.com")
	t.Setenv("AUTH0_DOMAIN", "tenant.us.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	ac := cfg.AuthConfig(nil)
	if !ac.Provider.Configured() {
		t.Error("provider not configured")
	}
	if !ac.Provider.OpaqueFallback {
		t.Error("opaque fallback should default on when a domain is set")
	}

	t.Setenv("AUTH0_OPAQUE_FALLBACK", "false")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AuthConfig(nil).Provider.OpaqueFallback {
		t.Error("opaque fallback flag not honored")
	}
}
