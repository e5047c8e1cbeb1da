package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate-limit backends.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	// Server
	Port    string
	Env     string
	SiteURL string

	// Supabase
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	// Auth
	OAuthProvider     string
	CookieSecure      bool
	AuthThrottleRPS   float64
	AuthThrottleBurst int

	// Rate limiting
	RateLimitBackend  string
	RateLimitFunction string
	DatabaseURL       string
	RedisURL          string

	// Chat
	StreamChunkDelay time.Duration
	ClientIPHeaders  []string

	// CORS
	AllowedOrigins []string

	// Logging
	LogLevel string
	LogFile  string

	lookup LookupFunc
}

// Load reads configuration from the process environment. A .env file is
// loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config from the given lookup. Required values that are
// missing produce a *MissingEnvError naming every checked variable.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	supabaseURL, err := RequiredEnv(lookup, "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	if err != nil {
		return nil, err
	}
	anonKey, err := RequiredEnv(lookup, "SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY")
	if err != nil {
		return nil, err
	}

	getEnv := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		// Server
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("ENV", "development"),
		SiteURL: strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),

		// Supabase
		SupabaseURL:       strings.TrimRight(supabaseURL, "/"),
		SupabaseAnonKey:   anonKey,
		SupabaseJWTSecret: OptionalEnv(lookup, "SUPABASE_JWT_SECRET"),

		// Auth
		OAuthProvider:     getEnv("OAUTH_PROVIDER", "google"),
		CookieSecure:      parseBool(getEnv("COOKIE_SECURE", "false"), false),
		AuthThrottleRPS:   parseFloat(getEnv("AUTH_THROTTLE_RPS", "1"), 1),
		AuthThrottleBurst: parseInt(getEnv("AUTH_THROTTLE_BURST", "10"), 10),

		// Rate limiting
		RateLimitBackend:  strings.ToLower(getEnv("RATE_LIMIT_BACKEND", BackendSupabase)),
		RateLimitFunction: getEnv("RATE_LIMIT_FUNCTION", "consume_chat_rate_limit"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),

		// Chat
		StreamChunkDelay: parseDuration(getEnv("STREAM_CHUNK_DELAY", "250ms"), 250*time.Millisecond),
		ClientIPHeaders:  parseStringSlice(getEnv("CLIENT_IP_HEADERS", "")),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogFile:  getEnv("LOG_FILE", ""),

		lookup: lookup,
	}

	// Session cookies never travel over plain HTTP in production.
	if cfg.IsProduction() {
		cfg.CookieSecure = true
	}

	if err := cfg.validateBackend(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateBackend() error {
	switch c.RateLimitBackend {
	case BackendSupabase:
		// The service-role key is resolved lazily by the privileged client,
		// but a missing key should still stop the process at boot.
		_, err := c.ServiceRoleKey()
		return err
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return &MissingEnvError{Names: []string{"DATABASE_URL"}}
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return &MissingEnvError{Names: []string{"REDIS_URL"}}
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (want %s, %s or %s)",
			c.RateLimitBackend, BackendSupabase, BackendPostgres, BackendRedis)
	}
	return nil
}

// ServiceRoleKey resolves the privileged Supabase key. It is kept out of the
// struct so it only lives inside the admin client.
func (c *Config) ServiceRoleKey() (string, error) {
	return RequiredEnv(c.lookup, "SUPABASE_SERVICE_ROLE_KEY")
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseFloat(s string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
