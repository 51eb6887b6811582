package netutil

import (
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "ipv4 with port", input: "192.0.2.4:8080", expected: "192.0.2.4", ok: true},
		{name: "ipv6 with port", input: "[2001:db8::1]:443", expected: "2001:db8::1", ok: true},
		{name: "ipv6 textual port", input: "[::1]:port", expected: "::1", ok: true},
		{name: "plain ipv4", input: " 203.0.113.9 ", expected: "203.0.113.9", ok: true},
		{name: "plain ipv6", input: "2001:db8::5", expected: "2001:db8::5", ok: true},
		{name: "zone stripped", input: "fe80::1%eth0", expected: "fe80::1", ok: true},
		{name: "mapped ipv4", input: "::ffff:10.0.0.1", expected: "10.0.0.1", ok: true},
		{name: "garbage", input: "not-an-ip", expected: "not-an-ip", ok: false},
		{name: "empty", input: "", expected: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeIP(tc.input)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	if got := ClientIP(r, false); got != "10.1.2.3" {
		t.Fatalf("untrusted proxy: got %q", got)
	}
	if got := ClientIP(r, true); got != "198.51.100.7" {
		t.Fatalf("trusted proxy: got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.8")
	if got := ClientIP(r, true); got != "198.51.100.8" {
		t.Fatalf("x-real-ip: got %q", got)
	}
}

func TestTruncateUserAgent(t *testing.T) {
	if got := TruncateUserAgent("curl/8.0"); got != "curl/8.0" {
		t.Fatalf("short ua changed: %q", got)
	}
	long := strings.Repeat("é", MaxUserAgentLength+10)
	truncated := TruncateUserAgent(long)
	if n := utf8.RuneCountInString(truncated); n != MaxUserAgentLength {
		t.Fatalf("expected %d runes, got %d", MaxUserAgentLength, n)
	}
	if !utf8.ValidString(truncated) {
		t.Fatalf("truncation split a rune")
	}
}
