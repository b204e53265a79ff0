package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ProxySet holds the networks whose forwarding headers are believed.
type ProxySet []netip.Prefix

// ParseProxies accepts CIDRs or bare addresses. The returned set holds every
// valid entry; invalid ones are reported together in the error.
func ParseProxies(entries []string) (ProxySet, error) {
	var set ProxySet
	var errs []error
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			set = append(set, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("trusted proxy %q: not an address or CIDR", e))
			continue
		}
		set = append(set, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return set, errors.Join(errs...)
}

// Contains reports whether addr is inside a trusted network.
func (p ProxySet) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientAddr resolves the originating client of r. Forwarding headers are
// read only when the connection itself comes from a trusted proxy.
// X-Forwarded-For is walked right to left past trusted hops, so a client
// cannot choose the result by prepending entries.
func (p ProxySet) ClientAddr(r *http.Request) (netip.Addr, bool) {
	remote, ok := parseHostAddr(r.RemoteAddr)
	if !ok || !p.Contains(remote) {
		return remote, false
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if addr, err := netip.ParseAddr(rip); err == nil {
			return addr.Unmap(), true
		}
		return remote, false
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !p.Contains(addr) {
			return addr.Unmap(), true
		}
	}
	return remote, false
}

// TrustedRealIP rewrites RemoteAddr to the client address found by
// ClientAddr. With an empty set every request keeps its RemoteAddr.
func TrustedRealIP(proxies ProxySet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(proxies) > 0 {
				if addr, forwarded := proxies.ClientAddr(r); forwarded {
					r.RemoteAddr = addr.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseHostAddr parses "host:port" or a plain address.
func parseHostAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
