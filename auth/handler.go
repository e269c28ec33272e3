package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/security"
)

// Handler serves the auth gateway's own HTTP endpoints: the token endpoint
// for the local client_credentials path, the two discovery documents, and
// the liveness probe.
type Handler struct {
	cfg    *Config
	issuer *Issuer

	limiter           *security.RateLimiter
	trustProxy        bool
	trustedProxyCount int

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	tracer  trace.Tracer
}

// NewHandler creates the auth HTTP handler. issuer may be nil when local
// issuance is not configured; the token endpoint then rejects all requests.
func NewHandler(cfg *Config, issuer *Issuer) *Handler {
	return &Handler{
		cfg:    cfg,
		issuer: issuer,
		logger: cfg.logger(),
	}
}

// SetRateLimiter enables per-IP rate limiting on the token endpoint.
// trustProxy and trustedProxyCount control client IP resolution behind
// reverse proxies.
func (h *Handler) SetRateLimiter(rl *security.RateLimiter, trustProxy bool, trustedProxyCount int) {
	h.limiter = rl
	h.trustProxy = trustProxy
	h.trustedProxyCount = trustedProxyCount
}

// SetMetrics attaches metric recording to the handler
func (h *Handler) SetMetrics(m *instrumentation.Metrics) {
	h.metrics = m
}

// SetTracer attaches a tracer to the handler
func (h *Handler) SetTracer(t trace.Tracer) {
	h.tracer = t
}

// RegisterRoutes registers the auth endpoints on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(MetadataPathProtectedResource, h.ServeProtectedResourceMetadata)
	mux.HandleFunc(MetadataPathAuthorizationServer, h.ServeAuthorizationServerMetadata)
	mux.HandleFunc("/oauth/token", h.ServeToken)
	mux.HandleFunc("/health", h.ServeHealth)
}

// ServeToken handles POST /oauth/token for the client_credentials grant
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.token")
		defer span.End()
		r = r.WithContext(ctx)
	}

	if r.Method != http.MethodPost {
		h.recordHTTP(ctx, "token", r.Method, http.StatusMethodNotAllowed, start)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.rateLimited(w, r) {
		h.recordHTTP(ctx, "token", r.Method, http.StatusTooManyRequests, start)
		instrumentation.SetSpanError(span, "rate limited")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.recordHTTP(ctx, "token", r.Method, http.StatusBadRequest, start)
		instrumentation.SetSpanError(span, "malformed form body")
		h.writeOAuthError(w, ErrInvalidRequest("malformed request body"))
		return
	}

	if h.issuer == nil {
		h.recordHTTP(ctx, "token", r.Method, http.StatusUnauthorized, start)
		instrumentation.SetSpanError(span, "local issuance not configured")
		h.writeOAuthError(w, ErrInvalidGrant("invalid client credentials"))
		return
	}

	grantType := r.PostFormValue("grant_type")
	instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrGrantType, grantType))

	tokenResp, err := h.issuer.Issue(ctx,
		grantType,
		r.PostFormValue("client_id"),
		r.PostFormValue("client_secret"),
	)
	if err != nil {
		var oauthErr *OAuthError
		if !errors.As(err, &oauthErr) {
			oauthErr = ErrServerError("internal error")
		}
		h.recordHTTP(ctx, "token", r.Method, oauthErr.Status, start)
		instrumentation.SetSpanError(span, oauthErr.Code)
		h.writeOAuthError(w, oauthErr)
		return
	}

	instrumentation.SetSpanSuccess(span)
	instrumentation.SetSpanAttributes(span, attribute.Int64(instrumentation.AttrExpiresIn, tokenResp.ExpiresIn))
	h.recordHTTP(ctx, "token", r.Method, http.StatusOK, start)

	security.SetSecurityHeaders(w, h.cfg.BaseURL)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tokenResp); err != nil {
		h.logger.Error("failed to encode token response", "error", err)
	}
}

// ServeHealth handles the liveness probe
func (h *Handler) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited enforces the per-IP limit on the token endpoint and writes
// the 429 response when exceeded.
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return false
	}

	ip := security.GetClientIP(r, h.trustProxy, h.trustedProxyCount)
	if h.limiter.Allow(ip) {
		return false
	}

	h.logger.Warn("token endpoint rate limit exceeded", "ip", ip)
	h.metrics.RecordRateLimitExceeded(r.Context(), "token_endpoint")

	w.Header().Set("Retry-After", "60")
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
	return true
}

func (h *Handler) writeOAuthError(w http.ResponseWriter, oauthErr *OAuthError) {
	security.SetSecurityHeaders(w, h.cfg.BaseURL)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(oauthErr.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             oauthErr.Code,
		"error_description": oauthErr.Description,
	})
}

func (h *Handler) recordHTTP(ctx context.Context, endpoint, method string, status int, start time.Time) {
	h.metrics.RecordHTTPRequest(ctx, method, endpoint, status, durationMs(start))
}
