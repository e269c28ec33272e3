// Package auth implements the dual-mode OAuth gateway guarding the MCP
// protocol endpoint.
//
// Two trust models operate side by side. Trusted first-party callers obtain
// short-lived opaque tokens directly from this gateway via the
// client_credentials grant (Issuer, backed by a TokenStore). Public callers
// run an authorization-code + PKCE flow, with dynamic client registration,
// against a delegated identity provider; the resulting tokens are verified
// here either locally against the provider's JWKS or remotely via its
// userinfo endpoint (DelegatedVerifier).
//
// The Guard is the single enforcement point in front of the protocol
// endpoint, and the Handler serves the token endpoint plus the RFC 9728 and
// RFC 8414 discovery documents that tell callers which path is active.
package auth
