// Package netutil derives the device metadata stored with a refresh session.
package netutil

import (
	"net/http"
	"net/netip"
	"strings"
)

const MaxUserAgentLength = 512

// NormalizeIP returns the canonical address in raw, which may carry a port,
// brackets or a zone. ok is false when no address could be parsed; raw is
// then returned trimmed.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, candidate := range ipCandidates(raw) {
		if addr, err := netip.ParseAddr(candidate); err == nil {
			return addr.WithZone("").Unmap().String(), true
		}
	}
	return raw, false
}

func ipCandidates(raw string) []string {
	out := []string{raw}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return []string{ap.Addr().String()}
	}
	if strings.HasPrefix(raw, "[") {
		if end := strings.LastIndexByte(raw, ']'); end > 0 {
			out = append(out, raw[1:end])
		}
	}
	if idx := strings.LastIndexByte(raw, ':'); idx > 0 {
		out = append(out, raw[:idx])
	}
	return out
}

// ClientIP picks the caller address for r. Forwarding headers are honoured
// only when trustProxy is set; the left-most X-Forwarded-For entry wins.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip, ok := NormalizeIP(first); ok {
				return ip
			}
		}
		if ip, ok := NormalizeIP(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}
	if ip, ok := NormalizeIP(r.RemoteAddr); ok {
		return ip
	}
	return ""
}

// TruncateUserAgent caps ua at MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			return ua[:i]
		}
		n++
	}
	return ua
}
