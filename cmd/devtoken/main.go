// Command devtoken mints an access token signed with SUPABASE_JWT_SECRET
// for local testing against an API that verifies sessions locally.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/config"
	"github.com/xecbot/xecbot-api/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "00000000-0000-0000-0000-000000000001", "user id (JWT sub)")
	email := flag.String("email", "dev@example.com", "email claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.SupabaseJWTSecret == "" {
		log.Fatal().Msg("SUPABASE_JWT_SECRET is not set")
	}
	if !cfg.IsDevelopment() {
		log.Fatal().Str("env", cfg.Env).Msg("devtoken only runs with ENV=development")
	}

	token, err := jwt.NewService(cfg.SupabaseJWTSecret, *ttl).GenerateAccessToken(*userID, *email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Println(token)
}
