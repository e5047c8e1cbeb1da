// Package ratelimit holds the chat budget counters. Every backend performs
// the check and the consume as one atomic operation in the external store;
// nothing is counted in process memory.
package ratelimit

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// Chat budget: at most MaxRequests per (user, ip) in any trailing Window.
const (
	Window      = 60 * time.Second
	MaxRequests = 20
)

// ErrUnavailable marks a counter that could not give an answer. Callers
// must treat it as "not allowed".
var ErrUnavailable = errors.New("rate limit service unavailable")

// Counter consumes one unit of budget for a (user, ip) pair and reports
// whether the request is allowed.
type Counter interface {
	Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error)

func (f CounterFunc) Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error) {
	return f(ctx, userID, ip, window, max)
}

// Policy binds a counter to fixed window and cap values.
type Policy struct {
	Counter Counter
	Window  time.Duration
	Max     int
}

// NewPolicy returns the chat policy over counter.
func NewPolicy(counter Counter) *Policy {
	return &Policy{Counter: counter, Window: Window, Max: MaxRequests}
}

// Allow consumes one request for the pair.
func (p *Policy) Allow(ctx context.Context, userID, ip string) (bool, error) {
	return p.Counter.Consume(ctx, userID, ip, p.Window, p.Max)
}

var functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidFunctionName reports whether name is safe to splice into SQL or an
// RPC path.
func ValidFunctionName(name string) bool {
	return functionName.MatchString(name)
}
