package supabase

import (
	"sync"

	"github.com/xecbot/xecbot-api/internal/config"
)

// Lazy builds a Client on first use and returns the same value, or the same
// error, to every later caller. The client is never modified after build.
type Lazy struct {
	once   sync.Once
	build  func() (*Client, error)
	client *Client
	err    error
}

// NewLazy wraps a builder.
func NewLazy(build func() (*Client, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the memoized client.
func (l *Lazy) Get() (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = l.build()
	})
	return l.client, l.err
}

// NewAdmin returns the lazily built service-role client. Create it once at
// startup and share it; the key is read from the environment only when the
// first privileged call needs it.
func NewAdmin(cfg *config.Config) *Lazy {
	return NewLazy(func() (*Client, error) {
		key, err := cfg.ServiceRoleKey()
		if err != nil {
			return nil, err
		}
		return NewClient(cfg.SupabaseURL, key, defaultTimeout), nil
	})
}
