package auth

import (
	"context"
	"testing"
	"time"

	"github.com/kdata-labs/realestate-mcp/storage/memory"
)

func testConfig() *Config {
	return &Config{
		Enabled:      true,
		BaseURL:      "https://gateway.example.com",
		ClientID:     "abc",
		ClientSecret: "xyz",
	}
}

func newTestIssuer(t *testing.T) (*Issuer, *memory.Store) {
	t.Helper()
	store := memory.NewWithInterval(0)
	t.Cleanup(store.Stop)

	issuer, err := NewIssuer(testConfig(), store)
	if err != nil {
		t.Fatalf("NewIssuer() error: %v", err)
	}
	return issuer, store
}

func TestIssueSuccess(t *testing.T) {
	issuer, store := newTestIssuer(t)
	ctx := context.Background()

	resp, err := issuer.Issue(ctx, GrantTypeClientCredentials, "abc", "xyz")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want %q", resp.TokenType, "bearer")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.ExpiresIn)
	}

	// The minted token must be immediately resolvable in the store
	subject, valid, err := store.Lookup(ctx, resp.AccessToken)
	if err != nil || !valid {
		t.Fatalf("issued token not valid in store: valid=%v err=%v", valid, err)
	}
	if subject != "abc" {
		t.Errorf("subject = %q, want %q", subject, "abc")
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	ctx := context.Background()

	first, err := issuer.Issue(ctx, GrantTypeClientCredentials, "abc", "xyz")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	second, err := issuer.Issue(ctx, GrantTypeClientCredentials, "abc", "xyz")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if first.AccessToken == second.AccessToken {
		t.Error("consecutive issuances returned the same token")
	}
}

func TestIssueRejectionsAreUniform(t *testing.T) {
	issuer, store := newTestIssuer(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		grantType    string
		clientID     string
		clientSecret string
	}{
		{"wrong grant type", "authorization_code", "abc", "xyz"},
		{"wrong client id", GrantTypeClientCredentials, "wrong", "xyz"},
		{"wrong secret", GrantTypeClientCredentials, "abc", "wrong"},
		{"both wrong", GrantTypeClientCredentials, "wrong", "wrong"},
		{"empty credentials", GrantTypeClientCredentials, "", ""},
	}

	var rejections []*OAuthError
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Issue(ctx, tt.grantType, tt.clientID, tt.clientSecret)
			if err == nil {
				t.Fatal("expected rejection")
			}
			oauthErr, ok := err.(*OAuthError)
			if !ok {
				t.Fatalf("expected *OAuthError, got %T", err)
			}
			rejections = append(rejections, oauthErr)
		})
	}

	// Every rejection must be indistinguishable: same code, same
	// description, same status. No field-level leak.
	for _, rej := range rejections[1:] {
		if *rej != *rejections[0] {
			t.Errorf("rejection %+v differs from %+v", rej, rejections[0])
		}
	}
	if rejections[0].Code != ErrorCodeInvalidGrant {
		t.Errorf("code = %q, want %q", rejections[0].Code, ErrorCodeInvalidGrant)
	}

	// Failed issuance must leave no record behind
	if store.Count() != 0 {
		t.Errorf("store holds %d records after failed issuance, want 0", store.Count())
	}
}

func TestIssueCustomTTL(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTL = 120 * time.Second

	store := memory.NewWithInterval(0)
	defer store.Stop()

	issuer, err := NewIssuer(cfg, store)
	if err != nil {
		t.Fatalf("NewIssuer() error: %v", err)
	}

	resp, err := issuer.Issue(context.Background(), GrantTypeClientCredentials, "abc", "xyz")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if resp.ExpiresIn != 120 {
		t.Errorf("expires_in = %d, want 120", resp.ExpiresIn)
	}
}

func TestNewIssuerRequiresClientID(t *testing.T) {
	cfg := testConfig()
	cfg.ClientID = ""

	store := memory.NewWithInterval(0)
	defer store.Stop()

	if _, err := NewIssuer(cfg, store); err == nil {
		t.Error("expected error for missing client ID")
	}
}
