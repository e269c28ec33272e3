// Package config loads the immutable process configuration from the
// environment. It is read exactly once at startup; request handlers receive
// the resulting struct by reference and never consult the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/kdata-labs/realestate-mcp/auth"
)

// Config is the full process configuration
type Config struct {
	// Server
	Host string
	Port int

	// Auth gateway
	AuthEnabled    bool
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TokenTTL       time.Duration
	Auth0Domain    string
	Auth0Audience  string
	OpaqueFallback bool

	// Upstream API credentials
	DataGoKrAPIKey    string // MOLIT RTMS service key
	OdcloudAPIKey     string // odcloud Authorization header key
	OdcloudServiceKey string // odcloud serviceKey query parameter
	OnbidAPIKey       string // Onbid service key

	// Observability
	MetricsEnabled bool
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("auth_enabled", false)
	v.SetDefault("token_ttl", 3600)
	v.SetDefault("opaque_fallback", true)
	v.SetDefault("metrics_enabled", false)

	bindings := map[string]string{
		"host":                "MCP_HOST",
		"port":                "MCP_PORT",
		"auth_enabled":        "MCP_AUTH_ENABLED",
		"base_url":            "MCP_BASE_URL",
		"client_id":           "OAUTH_CLIENT_ID",
		"client_secret":       "OAUTH_CLIENT_SECRET",
		"token_ttl":           "OAUTH_TOKEN_TTL",
		"auth0_domain":        "AUTH0_DOMAIN",
		"auth0_audience":      "AUTH0_AUDIENCE",
		"opaque_fallback":     "AUTH0_OPAQUE_FALLBACK",
		"data_go_kr_api_key":  "DATA_GO_KR_API_KEY",
		"odcloud_api_key":     "ODCLOUD_API_KEY",
		"odcloud_service_key": "ODCLOUD_SERVICE_KEY",
		"onbid_api_key":       "ONBID_API_KEY",
		"metrics_enabled":     "MCP_METRICS_ENABLED",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Host:              v.GetString("host"),
		Port:              v.GetInt("port"),
		AuthEnabled:       v.GetBool("auth_enabled"),
		BaseURL:           v.GetString("base_url"),
		ClientID:          v.GetString("client_id"),
		ClientSecret:      v.GetString("client_secret"),
		TokenTTL:          time.Duration(v.GetInt("token_ttl")) * time.Second,
		Auth0Domain:       v.GetString("auth0_domain"),
		Auth0Audience:     v.GetString("auth0_audience"),
		OpaqueFallback:    v.GetBool("opaque_fallback"),
		DataGoKrAPIKey:    v.GetString("data_go_kr_api_key"),
		OdcloudAPIKey:     v.GetString("odcloud_api_key"),
		OdcloudServiceKey: v.GetString("odcloud_service_key"),
		OnbidAPIKey:       v.GetString("onbid_api_key"),
		MetricsEnabled:    v.GetBool("metrics_enabled"),
	}

	if err := cfg.AuthConfig(nil).Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth configuration: %w", err)
	}

	return cfg, nil
}

// AuthConfig derives the auth gateway configuration
func (c *Config) AuthConfig(logger *slog.Logger) *auth.Config {
	return &auth.Config{
		Enabled:      c.AuthEnabled,
		BaseURL:      c.BaseURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenTTL:     c.TokenTTL,
		Provider: auth.ProviderConfig{
			Domain:         c.Auth0Domain,
			Audience:       c.Auth0Audience,
			OpaqueFallback: c.OpaqueFallback && c.Auth0Domain != "",
		},
		Logger: logger,
	}
}

// ListenAddr returns the host:port the server binds
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
