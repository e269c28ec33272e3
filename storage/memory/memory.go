// Package memory provides an in-memory implementation of the token store.
// It is suitable for development, testing, and single-instance deployments.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/security"
	"github.com/kdata-labs/realestate-mcp/storage"
)

// tokenLogLength is the number of characters of a token value included in
// debug logs. Enough for correlation without exposing the credential.
const tokenLogLength = 8

// Store is an in-memory TokenStore backed by a mutex-protected map.
// Expiry is enforced lazily at lookup; the background sweep only reclaims
// memory and is never required for correctness.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*storage.AccessToken

	tokensCountAtomic atomic.Int64

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

var _ storage.TokenStore = (*Store)(nil)

// New creates a new in-memory store with the default sweep interval (1 minute)
func New() *Store {
	return NewWithInterval(time.Minute)
}

// NewWithInterval creates a new in-memory store with a custom sweep interval.
// An interval of 0 disables the background sweep entirely.
func NewWithInterval(cleanupInterval time.Duration) *Store {
	s := &Store{
		tokens:          make(map[string]*storage.AccessToken),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// SetLogger sets the logger for the store
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetInstrumentation attaches instrumentation and registers the live token
// count gauge.
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	if inst == nil {
		return
	}
	if err := inst.RegisterTokenCountCallback(s.tokensCountAtomic.Load); err != nil {
		s.logger.Warn("failed to register token count gauge", "error", err)
	}
}

// Record stores a token, overwriting any previous record for the same value.
func (s *Store) Record(_ context.Context, token, subject string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token]; !exists {
		s.tokensCountAtomic.Add(1)
	}
	s.tokens[token] = &storage.AccessToken{
		Subject:   subject,
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}

	s.logger.Debug("token recorded",
		"token_prefix", safeTruncate(token, tokenLogLength),
		"subject", subject,
		"expires_at", expiresAt)

	return nil
}

// Lookup resolves a token to its subject. Expired tokens are reported
// invalid regardless of whether the sweep has removed them yet; unknown
// tokens are invalid without error.
func (s *Store) Lookup(_ context.Context, token string) (string, bool, error) {
	s.mu.RLock()
	rec, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if security.TokenExpired(rec.ExpiresAt, time.Now()) {
		return "", false, nil
	}
	return rec.Subject, true, nil
}

// Count returns the number of records currently held, including expired
// records the sweep has not reclaimed yet.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Stop terminates the background sweep goroutine. Safe to call twice.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

// sweep reclaims expired records
func (s *Store) sweep() {
	now := time.Now()

	s.mu.Lock()
	removed := 0
	for token, rec := range s.tokens {
		if security.TokenExpired(rec.ExpiresAt, now) {
			delete(s.tokens, token)
			removed++
		}
	}
	remaining := len(s.tokens)
	s.mu.Unlock()

	if removed > 0 {
		s.tokensCountAtomic.Add(int64(-removed))
		s.logger.Debug("expired tokens swept", "removed", removed, "remaining", remaining)
	}
}

// safeTruncate returns at most n leading characters of s
func safeTruncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
