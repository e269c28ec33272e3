package auth

import (
	"encoding/json"
	"net/http"

	"github.com/kdata-labs/realestate-mcp/security"
)

// Well-known discovery paths
const (
	MetadataPathProtectedResource   = "/.well-known/oauth-protected-resource"
	MetadataPathAuthorizationServer = "/.well-known/oauth-authorization-server"
)

// PKCEMethodS256 is the only code challenge method advertised for the
// delegated flow.
const PKCEMethodS256 = "S256"

// ServeProtectedResourceMetadata handles RFC 9728 protected resource
// metadata requests. The document is rebuilt from configuration on every
// request so it always reflects the active mode.
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeMetadata(w, h.buildProtectedResourceMetadata())
}

// ServeAuthorizationServerMetadata handles RFC 8414 authorization server
// metadata requests.
func (h *Handler) ServeAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeMetadata(w, h.buildAuthServerMetadata())
}

// buildProtectedResourceMetadata builds the protected resource document.
// Exactly one authorization server is trusted at a time: the delegated
// provider when configured, otherwise this gateway itself.
func (h *Handler) buildProtectedResourceMetadata() map[string]any {
	authServer := h.cfg.BaseURL
	if h.cfg.Provider.Configured() {
		authServer = h.cfg.Provider.IssuerURL()
	}

	return map[string]any{
		"resource":                 h.cfg.ResourceIdentifier(),
		"authorization_servers":    []string{authServer},
		"bearer_methods_supported": []string{"header"},
	}
}

// buildAuthServerMetadata builds the authorization server document. In
// delegated mode it mirrors the provider's endpoints so public callers can
// run authorization-code + PKCE with dynamic client registration; in
// local-only mode it advertises this gateway's client_credentials endpoint.
func (h *Handler) buildAuthServerMetadata() map[string]any {
	if h.cfg.Provider.Configured() {
		return map[string]any{
			"issuer":                                h.cfg.Provider.IssuerURL(),
			"authorization_endpoint":                h.cfg.Provider.AuthorizationEndpoint(),
			"token_endpoint":                        h.cfg.Provider.TokenEndpoint(),
			"registration_endpoint":                 h.cfg.Provider.RegistrationEndpoint(),
			"response_types_supported":              []string{"code"},
			"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
			"code_challenge_methods_supported":      []string{PKCEMethodS256},
			"token_endpoint_auth_methods_supported": []string{"none", "client_secret_post"},
		}
	}

	return map[string]any{
		"issuer":                                h.cfg.BaseURL,
		"token_endpoint":                        h.cfg.TokenEndpoint(),
		"response_types_supported":              []string{"token"},
		"grant_types_supported":                 []string{GrantTypeClientCredentials},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
	}
}

func (h *Handler) writeMetadata(w http.ResponseWriter, metadata map[string]any) {
	security.SetSecurityHeaders(w, h.cfg.BaseURL)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		h.logger.Error("failed to encode metadata response", "error", err)
	}
}
