// Package clientip derives a best-effort client address from forwarding
// headers.
//
// Forwarding headers are set by whoever sits in front of the service and can
// be forged by the caller when nothing strips them. The result is only ever
// used as a rate-limit dimension, never as an authorization signal.
package clientip

import (
	"net/http"
	"strings"
)

// Unknown is returned when no usable address is found.
const Unknown = "unknown"

const maxIPv6Len = 39

// DefaultHeaders is the lookup order: the hosting provider's header first,
// then the reverse-proxy headers.
var DefaultHeaders = []string{"X-Vercel-Forwarded-For", "X-Real-IP", "X-Forwarded-For"}

// Resolver extracts the client IP from a request.
type Resolver struct {
	headers []string
}

// NewResolver creates a resolver that inspects headers in the given order.
// An empty list falls back to DefaultHeaders.
func NewResolver(headers []string) *Resolver {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return &Resolver{headers: headers}
}

// FromRequest returns the client IP or Unknown. The first header that is
// present decides; a malformed value yields Unknown rather than falling
// through to the next header.
func (r *Resolver) FromRequest(req *http.Request) string {
	for _, name := range r.headers {
		value := strings.TrimSpace(req.Header.Get(name))
		if value == "" {
			continue
		}
		return Normalize(value)
	}
	return Unknown
}

// Normalize takes the first comma-separated entry of a header value and
// returns it when it is a valid address.
func Normalize(headerValue string) string {
	first, _, _ := strings.Cut(headerValue, ",")
	first = strings.TrimSpace(first)
	if IsIPv4(first) || IsPlausibleIPv6(first) {
		return first
	}
	return Unknown
}

// IsIPv4 reports whether s is four dot-separated decimal octets in 0-255.
func IsIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return false
		}
		n := 0
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// IsPlausibleIPv6 reports whether s contains a colon and nothing but hex
// digits and colons.
func IsPlausibleIPv6(s string) bool {
	if len(s) > maxIPv6Len || !strings.Contains(s, ":") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ':':
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
