package clientip

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromRequestTakesFirstForwardedEntry(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	if got := NewResolver(nil).FromRequest(r); got != "203.0.113.5" {
		t.Fatalf("expected 203.0.113.5, got %q", got)
	}
}

func TestFromRequestRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := NewResolver(nil).FromRequest(r); got != Unknown {
		t.Fatalf("expected %q, got %q", Unknown, got)
	}
}

func TestFromRequestWithoutHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.RemoteAddr = "10.0.0.9:5555"

	if got := NewResolver(nil).FromRequest(r); got != Unknown {
		t.Fatalf("expected %q, got %q", Unknown, got)
	}
}

func TestFromRequestHeaderPriority(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("X-Vercel-Forwarded-For", "198.51.100.7")
	r.Header.Set("X-Real-IP", "198.51.100.8")
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if got := NewResolver(nil).FromRequest(r); got != "198.51.100.7" {
		t.Fatalf("expected provider header to win, got %q", got)
	}

	r.Header.Del("X-Vercel-Forwarded-For")
	if got := NewResolver(nil).FromRequest(r); got != "198.51.100.8" {
		t.Fatalf("expected real-ip header to win, got %q", got)
	}
}

func TestFromRequestMalformedHigherPriorityDoesNotFallThrough(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("X-Real-IP", "evil")
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if got := NewResolver(nil).FromRequest(r); got != Unknown {
		t.Fatalf("expected %q, got %q", Unknown, got)
	}
}

func TestCustomResolverHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	res := NewResolver([]string{"CF-Connecting-IP"})
	if got := res.FromRequest(r); got != "2001:db8::1" {
		t.Fatalf("expected cf header, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"203.0.113.5", "203.0.113.5"},
		{" 203.0.113.5 ,1.1.1.1", "203.0.113.5"},
		{"0.0.0.0", "0.0.0.0"},
		{"255.255.255.255", "255.255.255.255"},
		{"256.1.1.1", Unknown},
		{"1.2.3", Unknown},
		{"1.2.3.4.5", Unknown},
		{"1..3.4", Unknown},
		{"1.2.3.-4", Unknown},
		{"1234.1.1.1", Unknown},
		{"2001:db8::1", "2001:db8::1"},
		{"::1", "::1"},
		{"FE80::ABCD", "FE80::ABCD"},
		{"2001:db8::g", Unknown},
		{"::ffff:1.2.3.4", Unknown},
		{"fe80::1%eth0", Unknown},
		{"deadbeef", Unknown},
		{"1111:2222:3333:4444:5555:6666:7777:8888:9999", Unknown},
		{"", Unknown},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
