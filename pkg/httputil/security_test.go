package httputil

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeRedirectURL(t *testing.T) {
	allowed := []string{"portal.example", "localhost"}

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"relative path", "/dashboard", true},
		{"relative with query", "/records?page=2", true},
		{"allowed host", "https://portal.example/dashboard", true},
		{"allowed host http", "http://localhost/verify", true},
		{"empty", "", false},
		{"other host", "https://evil.example/phish", false},
		{"network-path reference", "//evil.example", false},
		{"backslash network path", "\\\\evil.example", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"data scheme", "data:text/html,x", false},
		{"control characters", "/dash\nboard", false},
		{"scheme-relative host trick", "https:///evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeRedirectURL(tt.target, allowed))
		})
	}
}

func TestIsSafeOutboundURL(t *testing.T) {
	hosts := map[string][]net.IP{
		"public.example":   {net.ParseIP("93.184.216.34")},
		"internal.example": {net.ParseIP("10.0.0.5")},
		"mixed.example":    {net.ParseIP("93.184.216.34"), net.ParseIP("192.168.1.1")},
	}

	original := lookupIP
	lookupIP = func(_ context.Context, host string) ([]net.IP, error) {
		ips, ok := hosts[host]
		if !ok {
			return nil, fmt.Errorf("no such host: %s", host)
		}
		return ips, nil
	}
	defer func() { lookupIP = original }()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"public host", "https://public.example/callback", true},
		{"public literal", "https://93.184.216.34/x", true},
		{"private host", "https://internal.example/x", false},
		{"mixed resolution", "https://mixed.example/x", false},
		{"loopback literal", "http://127.0.0.1:8080/x", false},
		{"ipv6 loopback", "http://[::1]/x", false},
		{"link-local", "http://169.254.169.254/latest/meta-data", false},
		{"carrier-grade nat", "http://100.64.0.1/x", false},
		{"unresolvable", "https://missing.example/x", false},
		{"ftp scheme", "ftp://public.example/x", false},
		{"no host", "https:///x", false},
		{"garbage", "://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeOutboundURL(context.Background(), tt.raw))
		})
	}
}
