// Package netguard validates outbound callback URLs (webhooks, export
// targets) against SSRF-style redirection to internal network ranges.
// Grounded on spec §6's "Callback URL validation" paragraph; no HTTP
// security-guard library appears anywhere in the example pack, so this is a
// stdlib net/url + net implementation (justified: no such library present
// to wire).
package netguard

import (
	"fmt"
	"net"
	"net/url"
)

// ValidateCallbackURL rejects anything that isn't a plain http(s) URL
// pointing at a public, resolvable host — no loopback, private, link-local,
// or other reserved address ranges.
func ValidateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("url has no host")
	}

	host := u.Hostname()
	ips, err := net.LookupIP(host)
	if err != nil {
		if ip := net.ParseIP(host); ip != nil {
			ips = []net.IP{ip}
		} else {
			return fmt.Errorf("resolving host %q: %w", host, err)
		}
	}

	for _, ip := range ips {
		if isReservedIP(ip) {
			return fmt.Errorf("host %q resolves to a reserved address %s", host, ip)
		}
	}

	return nil
}

func isReservedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() || ip.IsMulticast() {
		return true
	}
	// Carrier-grade NAT (100.64.0.0/10) isn't covered by net.IP's own
	// helpers; check it explicitly.
	if cgnat := (&net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}); cgnat.Contains(ip) {
		return true
	}
	return false
}
