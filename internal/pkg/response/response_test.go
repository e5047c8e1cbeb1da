package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestErrorBodyCarriesMessageAndCode(t *testing.T) {
	rr := httptest.NewRecorder()
	ServiceUnavailable(rr, "RATE_LIMIT_UNAVAILABLE", "try later")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var out Response
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Success || out.Error != "try later" || out.Code != "RATE_LIMIT_UNAVAILABLE" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestTooManyRequestsSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	TooManyRequests(rr, "slow down", time.Minute)

	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}
}
