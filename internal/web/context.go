package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// WithRequestMetadata attaches the client IP and User-Agent to ctx so the
// session history records who made each change.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithActor(ctx, core.Actor{
		IPAddress: clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	})
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has
// already rewritten for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
