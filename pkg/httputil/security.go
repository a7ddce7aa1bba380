package httputil

import (
	"context"
	"net"
	"net/url"
	"strings"
)

// lookupIP is swapped out in tests to avoid real DNS.
var lookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

// IsSafeRedirectURL reports whether target is safe to use as a
// post-login or post-verification redirect. Relative paths are safe;
// absolute URLs are only accepted for an allowed host over http or
// https. Backslashes are treated as slashes because browsers do the
// same.
func IsSafeRedirectURL(target string, allowedHosts []string) bool {
	if target == "" {
		return false
	}
	if strings.ContainsAny(target, "\r\n\t") {
		return false
	}

	normalized := strings.ReplaceAll(target, "\\", "/")

	// Network-path references ("//evil.example") inherit the current
	// scheme and leave the site.
	if strings.HasPrefix(normalized, "//") {
		return false
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}

	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return parsed.Scheme == ""
	}

	host := strings.ToLower(parsed.Hostname())
	for _, allowed := range allowedHosts {
		if host == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// IsSafeOutboundURL reports whether raw is an http(s) URL whose host
// resolves only to public addresses. Links the portal hands out or
// fetches must not point into loopback, private, or link-local ranges.
func IsSafeOutboundURL(ctx context.Context, raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}

	var ips []net.IP
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		ips = []net.IP{ip}
	} else {
		ips, err = lookupIP(ctx, host)
		if err != nil || len(ips) == 0 {
			return false
		}
	}

	for _, ip := range ips {
		if !isPublicIP(ip) {
			return false
		}
	}
	return true
}

func isPublicIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return false
	}
	// Carrier-grade NAT (100.64.0.0/10) is not routable either.
	if v4 := ip.To4(); v4 != nil && v4[0] == 100 && v4[1]&0xc0 == 64 {
		return false
	}
	return true
}
