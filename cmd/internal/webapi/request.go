package webapi

import (
	"net"
	"net/http"
	"strings"
)

// BearerToken extracts the token from the Authorization header.
// Accepts both "Bearer <token>" and a bare token for compatibility with the
// original admin client; returns "" when absent.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}

// ClientIP resolves the caller's address. Proxy headers are only honored
// when trustProxy is set; otherwise the socket peer wins.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := firstForwardedIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if ip := strings.TrimSpace(r.RemoteAddr); ip != "" {
		return ip
	}
	return "unknown"
}

func firstForwardedIP(raw string) string {
	if raw == "" {
		return ""
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if net.ParseIP(p) != nil {
			return p
		}
	}
	return ""
}
