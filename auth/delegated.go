package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.opentelemetry.io/otel/trace"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/security"
)

// Verification path names used in logs and metrics
const (
	verifyPathJWT      = "jwt"
	verifyPathUserinfo = "userinfo"
)

// jwksMinRefreshInterval caps how often the provider key set is re-fetched
const jwksMinRefreshInterval = 15 * time.Minute

// DelegatedVerifier validates bearer tokens minted by the delegated identity
// provider. Two token shapes exist:
//
//   - Signed JWTs, verified locally against the provider's published JWKS:
//     signature, issuer, audience and expiry are all checked.
//   - Opaque (encrypted) tokens, which the provider issues when the
//     authorization request carries a resource parameter. These cannot be
//     verified locally; the decryption keys are deliberately not available
//     here. They are resolved by a remote userinfo call with the token as
//     bearer credential, and only when OpaqueFallback is enabled.
//
// The shape decision is structural (JWS compact serialization has exactly
// three segments) and made in one place; no call site guesses at content.
// Every failure, including provider timeouts and network errors, denies the
// token. This path never fails open.
type DelegatedVerifier struct {
	issuer         string
	audience       string
	jwksURL        string
	userinfoURL    string
	jwksCache      *jwk.Cache
	httpClient     *http.Client
	opaqueFallback bool
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
	tracer         trace.Tracer
}

// NewDelegatedVerifier creates a verifier for the configured provider.
// The given context bounds the lifetime of the JWKS cache refresher.
func NewDelegatedVerifier(ctx context.Context, cfg *Config) (*DelegatedVerifier, error) {
	if !cfg.Provider.Configured() {
		return nil, fmt.Errorf("provider domain is required for delegated verification")
	}
	if cfg.Provider.Audience == "" {
		return nil, fmt.Errorf("provider audience is required for delegated verification")
	}

	jwksURL := cfg.Provider.JWKSURL()

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(jwksMinRefreshInterval)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	return &DelegatedVerifier{
		issuer:         cfg.Provider.IssuerURL(),
		audience:       cfg.Provider.Audience,
		jwksURL:        jwksURL,
		userinfoURL:    cfg.Provider.UserinfoURL(),
		jwksCache:      cache,
		httpClient:     &http.Client{Timeout: cfg.providerTimeout()},
		opaqueFallback: cfg.Provider.OpaqueFallback,
		logger:         cfg.logger(),
	}, nil
}

// SetMetrics attaches metric recording to the verifier
func (v *DelegatedVerifier) SetMetrics(m *instrumentation.Metrics) {
	v.metrics = m
}

// SetTracer attaches a tracer to the verifier
func (v *DelegatedVerifier) SetTracer(t trace.Tracer) {
	v.tracer = t
}

// Verify resolves a delegated bearer token to its subject or fails with
// invalid_token. The single dispatch point between the two token shapes
// lives here.
func (v *DelegatedVerifier) Verify(ctx context.Context, token string) (string, error) {
	var span trace.Span
	if v.tracer != nil {
		ctx, span = v.tracer.Start(ctx, "auth.delegated.verify")
		defer span.End()
	}

	if isCompactJWS(token) {
		subject, err := v.verifyJWT(ctx, token)
		v.record(ctx, span, verifyPathJWT, err)
		return subject, err
	}

	if !v.opaqueFallback {
		v.logger.Warn("opaque token rejected, userinfo fallback disabled")
		err := ErrInvalidToken("invalid or expired token")
		v.record(ctx, span, verifyPathUserinfo, err)
		return "", err
	}

	subject, err := v.verifyViaUserinfo(ctx, token)
	v.record(ctx, span, verifyPathUserinfo, err)
	return subject, err
}

func (v *DelegatedVerifier) record(ctx context.Context, span trace.Span, path string, err error) {
	outcome := "valid"
	if err != nil {
		outcome = "invalid"
		instrumentation.SetSpanError(span, outcome)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	instrumentation.AddVerificationAttributes(span, path, outcome)
	v.metrics.RecordTokenVerification(ctx, path, outcome)
}

// isCompactJWS reports whether the token is in JWS compact serialization:
// three non-empty dot-separated segments. Encrypted tokens (JWE, five
// segments) and plain opaque strings both fail this test and take the
// remote path.
func isCompactJWS(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// verifyJWT validates a signed token against the provider JWKS
func (v *DelegatedVerifier) verifyJWT(ctx context.Context, tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, v.keyFunc(ctx),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(security.DefaultClockSkewLeeway),
	)
	if err != nil {
		v.logger.Warn("delegated JWT validation failed", "error", err)
		return "", ErrInvalidToken("invalid or expired token")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		v.logger.Warn("delegated JWT carries no subject")
		return "", ErrInvalidToken("invalid or expired token")
	}

	return subject, nil
}

// keyFunc resolves the signing key for a token from the cached JWKS
func (v *DelegatedVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("token header missing kid")
		}

		keySet, err := v.jwksCache.Get(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
		}

		key, found := keySet.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("key %q not found in JWKS", kid)
		}

		var raw any
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("failed to extract raw key: %w", err)
		}
		return raw, nil
	}
}

// verifyViaUserinfo resolves an opaque token by a remote provider call.
// A 2xx response carrying a non-empty subject is the only success; every
// other outcome, network errors and timeouts included, denies the token.
func (v *DelegatedVerifier) verifyViaUserinfo(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return "", ErrInvalidToken("invalid or expired token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Warn("userinfo call failed", "error", err)
		return "", ErrInvalidToken("invalid or expired token")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.logger.Warn("userinfo call rejected token", "status", resp.StatusCode)
		return "", ErrInvalidToken("invalid or expired token")
	}

	var userInfo struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&userInfo); err != nil {
		v.logger.Warn("failed to decode userinfo response", "error", err)
		return "", ErrInvalidToken("invalid or expired token")
	}
	if userInfo.Sub == "" {
		v.logger.Warn("userinfo response carries no subject")
		return "", ErrInvalidToken("invalid or expired token")
	}

	return userInfo.Sub, nil
}
