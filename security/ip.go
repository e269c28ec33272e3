package security

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP extracts the real client IP address from the request.
// X-Forwarded-For and X-Real-IP are only consulted when trustProxy is set;
// otherwise the direct connection address wins, which prevents spoofing
// when the gateway is exposed without a reverse proxy in front.
//
// trustedProxyCount is the number of proxies we control counted from the
// right of the X-Forwarded-For chain.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := extractIPFromXFF(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	return extractIPFromRemoteAddr(r.RemoteAddr)
}

// extractIPFromXFF picks the client IP out of an X-Forwarded-For chain.
// The chain reads "client, proxy1, proxy2, ..." left to right; only the
// rightmost trustedProxyCount entries were appended by proxies we control,
// so the client is the entry just left of those.
func extractIPFromXFF(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	clientIndex := clientIPIndex(len(ips), trustedProxyCount)
	return parseIP(strings.TrimSpace(ips[clientIndex]))
}

// clientIPIndex returns the index of the client entry in an XFF chain of
// numIPs entries. A trustedProxyCount of 0 assumes a single trusted proxy.
// Chains shorter than the trusted count fall back to the leftmost entry.
func clientIPIndex(numIPs, trustedProxyCount int) int {
	proxyCount := trustedProxyCount
	if proxyCount == 0 {
		proxyCount = 1
	}

	idx := numIPs - proxyCount - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// parseIP returns s if it is a valid IP address, else "".
func parseIP(s string) string {
	if s == "" || net.ParseIP(s) == nil {
		return ""
	}
	return s
}

// extractIPFromRemoteAddr extracts the IP from RemoteAddr for direct connections.
func extractIPFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
