package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xecbot/xecbot-api/internal/config"
	"github.com/xecbot/xecbot-api/internal/pkg/supabase"
)

// AdminClient hands out the privileged Supabase client.
type AdminClient interface {
	Get() (*supabase.Client, error)
}

// SupabaseCounter calls the rate-limit function through PostgREST with the
// service-role key.
type SupabaseCounter struct {
	admin    AdminClient
	function string
}

// NewSupabaseCounter creates the default backend.
func NewSupabaseCounter(admin AdminClient, function string) (*SupabaseCounter, error) {
	if !ValidFunctionName(function) {
		return nil, fmt.Errorf("invalid rate limit function name %q", function)
	}
	return &SupabaseCounter{admin: admin, function: function}, nil
}

type rpcParams struct {
	UserID        string `json:"p_user_id"`
	IP            string `json:"p_ip"`
	WindowSeconds int    `json:"p_window_seconds"`
	MaxRequests   int    `json:"p_max_requests"`
}

func (c *SupabaseCounter) Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error) {
	client, err := c.admin.Get()
	if err != nil {
		var missing *config.MissingEnvError
		if errors.As(err, &missing) {
			return false, err
		}
		return false, fmt.Errorf("%w: admin client: %w", ErrUnavailable, err)
	}

	// A nil result covers an empty body, 204 and a JSON null.
	var allowed *bool
	err = client.RPC(ctx, c.function, rpcParams{
		UserID:        userID,
		IP:            ip,
		WindowSeconds: int(window / time.Second),
		MaxRequests:   max,
	}, &allowed)
	if err != nil {
		return false, fmt.Errorf("%w: supabase rpc %s: %w", ErrUnavailable, c.function, err)
	}
	if allowed == nil {
		return false, fmt.Errorf("%w: supabase rpc %s: result is not a boolean", ErrUnavailable, c.function)
	}
	return *allowed, nil
}
