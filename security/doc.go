// Package security provides the HTTP-level hardening shared by the auth
// gateway endpoints: response security headers, client IP resolution behind
// proxies, per-IP rate limiting with LRU eviction, request ID propagation,
// and token expiry helpers.
package security
