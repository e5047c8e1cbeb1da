package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresCounter calls the rate-limit function directly over a database
// connection. The function shipped in migrations/ locks the (user, ip) row
// so concurrent calls are serialized.
type PostgresCounter struct {
	db    *sqlx.DB
	query string
}

// NewPostgresCounter creates the postgres backend.
func NewPostgresCounter(db *sqlx.DB, function string) (*PostgresCounter, error) {
	if !ValidFunctionName(function) {
		return nil, fmt.Errorf("invalid rate limit function name %q", function)
	}
	return &PostgresCounter{
		db:    db,
		query: fmt.Sprintf("SELECT %s($1, $2, $3, $4)", function),
	}, nil
}

func (c *PostgresCounter) Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error) {
	var allowed bool
	if err := c.db.GetContext(ctx, &allowed, c.query, userID, ip, int(window/time.Second), max); err != nil {
		return false, fmt.Errorf("%w: postgres: %w", ErrUnavailable, err)
	}
	return allowed, nil
}
