package chat

import (
	"errors"
	"net/http"

	"github.com/xecbot/xecbot-api/internal/config"
	"github.com/xecbot/xecbot-api/internal/domain/ratelimit"
)

// Error codes returned in the JSON error body.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeBadRequest           = "BAD_REQUEST"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeRateLimitUnavailable = "RATE_LIMIT_UNAVAILABLE"
	CodeConfigurationMissing = "CONFIGURATION_MISSING"
)

// ShapeMessage describes the only accepted request body.
const ShapeMessage = `Expected JSON body of the form {"message": string}`

// GateError is a request rejected before streaming started.
type GateError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *GateError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GateError) Unwrap() error { return e.Err }

func errAuthenticationRequired() *GateError {
	return &GateError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "Authentication required"}
}

func errBadRequest(reason string) *GateError {
	return &GateError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: reason}
}

func errRateLimitExceeded() *GateError {
	return &GateError{
		Status:  http.StatusTooManyRequests,
		Code:    CodeRateLimitExceeded,
		Message: "Rate limit exceeded. Please wait before sending more messages.",
	}
}

// errFromCounter maps a counter failure. A missing privileged key is a
// deployment problem, everything else is the backend being unreachable.
func errFromCounter(err error) *GateError {
	var missing *config.MissingEnvError
	if errors.As(err, &missing) {
		return &GateError{
			Status:  http.StatusInternalServerError,
			Code:    CodeConfigurationMissing,
			Message: "Server configuration is incomplete",
			Err:     err,
		}
	}
	if !errors.Is(err, ratelimit.ErrUnavailable) {
		err = errors.Join(ratelimit.ErrUnavailable, err)
	}
	return &GateError{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeRateLimitUnavailable,
		Message: "Rate limit service unavailable. Please try again later.",
		Err:     err,
	}
}
