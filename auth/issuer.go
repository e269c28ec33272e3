package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/storage"
)

// GrantTypeClientCredentials is the only grant type the local issuer accepts
const GrantTypeClientCredentials = "client_credentials"

// TokenResponse is the token endpoint success response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issuer mints opaque access tokens for the single configured client
// credential pair. The configured secret is bcrypt-hashed at construction
// so request-time comparison is constant-time and the plaintext is not
// retained in memory longer than necessary.
type Issuer struct {
	clientID   string
	secretHash []byte
	ttl        time.Duration
	store      storage.TokenStore
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewIssuer creates a local token issuer backed by the given store
func NewIssuer(cfg *Config, store storage.TokenStore) (*Issuer, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required for local issuance")
	}
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.ClientSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash client secret: %w", err)
	}

	return &Issuer{
		clientID:   cfg.ClientID,
		secretHash: hash,
		ttl:        cfg.ttl(),
		store:      store,
		logger:     cfg.logger(),
	}, nil
}

// SetMetrics attaches metric recording to the issuer
func (i *Issuer) SetMetrics(m *instrumentation.Metrics) {
	i.metrics = m
}

// Issue validates a client_credentials grant and mints a token. Any
// mismatch of grant type, client ID or secret yields the same invalid_grant
// error; callers must not learn which field was wrong.
func (i *Issuer) Issue(ctx context.Context, grantType, clientID, clientSecret string) (*TokenResponse, error) {
	if grantType != GrantTypeClientCredentials {
		i.logger.Warn("token request with unsupported grant type", "grant_type", grantType)
		i.recordIssued(ctx, "invalid_grant")
		return nil, ErrInvalidGrant("invalid client credentials")
	}

	// Both comparisons always run so a wrong client ID and a wrong secret
	// take the same time.
	idMatch := subtle.ConstantTimeCompare([]byte(clientID), []byte(i.clientID)) == 1
	secretMatch := bcrypt.CompareHashAndPassword(i.secretHash, []byte(clientSecret)) == nil

	if !idMatch || !secretMatch {
		i.logger.Warn("token request with invalid credentials", "client_id", clientID)
		i.recordIssued(ctx, "invalid_grant")
		return nil, ErrInvalidGrant("invalid client credentials")
	}

	token := oauth2.GenerateVerifier()
	expiresAt := time.Now().Add(i.ttl)

	if err := i.store.Record(ctx, token, i.clientID, expiresAt); err != nil {
		i.logger.Error("failed to record issued token", "error", err)
		i.recordIssued(ctx, "error")
		return nil, ErrServerError("failed to issue token")
	}

	i.logger.Info("access token issued",
		"client_id", i.clientID,
		"expires_in", int64(i.ttl.Seconds()))
	i.recordIssued(ctx, "success")

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(i.ttl.Seconds()),
	}, nil
}

func (i *Issuer) recordIssued(ctx context.Context, outcome string) {
	i.metrics.RecordTokenIssued(ctx, outcome)
}
