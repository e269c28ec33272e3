package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultTokenTTL is the lifetime of locally issued access tokens
	DefaultTokenTTL = time.Hour

	// DefaultProviderTimeout bounds remote calls to the delegated provider.
	// Verification must never hang on a slow provider; on timeout the token
	// is treated as invalid (fail closed).
	DefaultProviderTimeout = 10 * time.Second
)

// ProviderConfig describes the delegated identity provider. Delegation is
// active when Domain is set; everything else derives from it.
type ProviderConfig struct {
	// Domain is the provider tenant domain, e.g. "tenant.us.auth0.com".
	// No scheme, no trailing slash.
	Domain string

	// Audience is the resource identifier delegated access tokens must
	// carry in their audience claim.
	Audience string

	// OpaqueFallback enables remote userinfo verification for tokens that
	// are not in JWS compact form. The provider issues encrypted access
	// tokens when the authorization request carries a resource parameter;
	// those cannot be verified locally. When false, such tokens are
	// rejected without any network call.
	OpaqueFallback bool

	// Timeout bounds every remote call to the provider (JWKS fetch,
	// userinfo). Zero means DefaultProviderTimeout.
	Timeout time.Duration
}

// Configured reports whether delegation is active
func (p ProviderConfig) Configured() bool {
	return p.Domain != ""
}

// IssuerURL returns the provider issuer, with the trailing slash the
// provider uses in its iss claims.
func (p ProviderConfig) IssuerURL() string {
	return "https://" + p.Domain + "/"
}

// JWKSURL returns the provider's published signing key set URL
func (p ProviderConfig) JWKSURL() string {
	return "https://" + p.Domain + "/.well-known/jwks.json"
}

// UserinfoURL returns the provider endpoint used to resolve opaque tokens
func (p ProviderConfig) UserinfoURL() string {
	return "https://" + p.Domain + "/userinfo"
}

// AuthorizationEndpoint returns the provider's authorization endpoint
func (p ProviderConfig) AuthorizationEndpoint() string {
	return "https://" + p.Domain + "/authorize"
}

// TokenEndpoint returns the provider's token endpoint
func (p ProviderConfig) TokenEndpoint() string {
	return "https://" + p.Domain + "/oauth/token"
}

// RegistrationEndpoint returns the provider's dynamic client registration endpoint
func (p ProviderConfig) RegistrationEndpoint() string {
	return "https://" + p.Domain + "/oidc/register"
}

// Config is the immutable configuration for the auth gateway. It is
// constructed once at startup and passed by reference to every component;
// request handlers never consult the environment.
type Config struct {
	// Enabled is the process-wide auth mode. When false the Request Guard
	// admits every request without inspection. That is the documented
	// behavior for local development, not a fallback.
	Enabled bool

	// BaseURL is the public base URL of this gateway, no trailing slash
	BaseURL string

	// ClientID and ClientSecret are the single configured credential pair
	// for the local client_credentials path. Empty ClientID disables local
	// issuance.
	ClientID     string
	ClientSecret string

	// TokenTTL is the lifetime of locally issued tokens. Zero means
	// DefaultTokenTTL.
	TokenTTL time.Duration

	// Provider configures the delegated verification path
	Provider ProviderConfig

	// Logger is used by all auth components; nil means slog.Default()
	Logger *slog.Logger
}

// Validate checks the configuration for fatal errors. It is called once at
// startup; a misconfigured gateway must refuse to start rather than defer
// failures to request time.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required when auth is enabled")
	}
	if strings.HasSuffix(c.BaseURL, "/") {
		return fmt.Errorf("base URL must not end with a slash: %q", c.BaseURL)
	}

	if c.ClientID == "" && !c.Provider.Configured() {
		return fmt.Errorf("auth is enabled but neither local credentials nor a provider domain are configured")
	}
	if c.ClientID != "" && c.ClientSecret == "" {
		return fmt.Errorf("client secret is required when a client ID is configured")
	}

	// Delegation settings without a domain indicate a broken deployment
	if !c.Provider.Configured() && (c.Provider.Audience != "" || c.Provider.OpaqueFallback) {
		return fmt.Errorf("delegated verification is configured but the provider domain is missing")
	}

	return nil
}

// TokenEndpoint returns this gateway's own token endpoint
func (c *Config) TokenEndpoint() string {
	return c.BaseURL + "/oauth/token"
}

// ResourceIdentifier returns the protected resource identifier advertised in
// discovery metadata. The configured provider audience wins when delegation
// is active so that discovery and token validation agree.
func (c *Config) ResourceIdentifier() string {
	if c.Provider.Audience != "" {
		return c.Provider.Audience
	}
	return c.BaseURL + "/mcp"
}

// ttl returns the effective token TTL
func (c *Config) ttl() time.Duration {
	if c.TokenTTL > 0 {
		return c.TokenTTL
	}
	return DefaultTokenTTL
}

// logger returns the effective logger
func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// providerTimeout returns the effective provider call timeout
func (c *Config) providerTimeout() time.Duration {
	if c.Provider.Timeout > 0 {
		return c.Provider.Timeout
	}
	return DefaultProviderTimeout
}
