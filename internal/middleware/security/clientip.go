package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPResolver finds the client address, trusting forwarding headers only when the
// direct peer is a known proxy.
type IPResolver struct {
	trusted []netip.Prefix
}

func NewIPResolver(extraCIDRs ...string) (*IPResolver, error) {
	r := &IPResolver{}
	for _, cidr := range append([]string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}, extraCIDRs...) {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %s: %w", cidr, err)
		}
		r.trusted = append(r.trusted, p)
	}
	return r, nil
}

func (r *IPResolver) ClientIP(req *http.Request) string {
	direct, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		direct = req.RemoteAddr
	}
	addr, err := netip.ParseAddr(direct)
	if err != nil || !r.isTrusted(addr) {
		return direct
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return ip.String()
		}
	}
	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); xri != "" {
		if ip, err := netip.ParseAddr(xri); err == nil {
			return ip.String()
		}
	}
	return direct
}

func (r *IPResolver) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range r.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
