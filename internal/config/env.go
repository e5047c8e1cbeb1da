package config

import (
	"os"
	"strings"
)

// MissingEnvError is returned when none of the candidate variables for a
// required setting is set.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return "Missing required environment variable. Set one of: " + strings.Join(e.Names, ", ")
}

// LookupFunc resolves a single environment variable.
type LookupFunc func(key string) (string, bool)

// RequiredEnv returns the value of the first non-empty variable among name and
// fallbacks, in order.
func RequiredEnv(lookup LookupFunc, name string, fallbacks ...string) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	names := append([]string{name}, fallbacks...)
	for _, candidate := range names {
		if value, ok := lookup(candidate); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", &MissingEnvError{Names: names}
}

// OptionalEnv is RequiredEnv without the error: it returns "" when nothing is set.
func OptionalEnv(lookup LookupFunc, name string, fallbacks ...string) string {
	value, _ := RequiredEnv(lookup, name, fallbacks...)
	return value
}
