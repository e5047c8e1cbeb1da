package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// RPC calls a Postgres function exposed through PostgREST and decodes its
// JSON result into out.
func (c *Client) RPC(ctx context.Context, function string, params, out interface{}) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+url.PathEscape(function), "", params, out)
}
