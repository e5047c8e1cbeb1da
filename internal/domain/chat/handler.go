package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/middleware"
	"github.com/xecbot/xecbot-api/internal/pkg/clientip"
	"github.com/xecbot/xecbot-api/internal/pkg/response"
	"github.com/xecbot/xecbot-api/internal/pkg/validator"
)

// maxBodyBytes bounds the request body. 4000 characters of escaped JSON fit
// comfortably.
const maxBodyBytes = 64 << 10

// Limiter consumes one unit of the chat budget for a (user, ip) pair.
type Limiter interface {
	Allow(ctx context.Context, userID, ip string) (bool, error)
}

// Handler handles chat HTTP requests
type Handler struct {
	limiter  Limiter
	streamer *Streamer
	ips      *clientip.Resolver
	upgrader websocket.Upgrader
}

// NewHandler creates chat handler
func NewHandler(limiter Limiter, streamer *Streamer, ips *clientip.Resolver, allowedOrigins []string) *Handler {
	if ips == nil {
		ips = clientip.NewResolver(nil)
	}
	return &Handler{
		limiter:  limiter,
		streamer: streamer,
		ips:      ips,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Send handles POST /api/chat
// @Summary Stream a chat reply
// @Tags Chat
// @Accept json
// @Produce plain
// @Param request body ChatRequest true "Message"
// @Success 200 {string} string "chunked text"
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/chat [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeGateError(w, errBadRequest("Request body too large"))
			return
		}
		writeGateError(w, errBadRequest("Invalid JSON body"))
		return
	}

	message, gerr := h.admit(r.Context(), middleware.GetUserID(r.Context()), h.ips.FromRequest(r), body)
	if gerr != nil {
		writeGateError(w, gerr)
		return
	}

	if err := h.streamer.Stream(r.Context(), w, message); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("chat stream stopped early")
	}
}

// admit runs the gate for one message: parse, validate, then consume budget.
// Nothing reaches the counter unless the body is valid.
func (h *Handler) admit(ctx context.Context, userID, ip string, body []byte) (string, *GateError) {
	if userID == "" {
		return "", errAuthenticationRequired()
	}

	req, gerr := parseChatRequest(body)
	if gerr != nil {
		return "", gerr
	}

	allowed, err := h.limiter.Allow(ctx, userID, ip)
	if err != nil {
		gerr := errFromCounter(err)
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("code", gerr.Code).Msg("rate limit check failed")
		return "", gerr
	}
	if !allowed {
		log.Ctx(ctx).Warn().Str("user_id", userID).Str("ip", ip).Msg("chat rate limit exceeded")
		return "", errRateLimitExceeded()
	}

	log.Ctx(ctx).Debug().Str("user_id", userID).Str("ip", ip).Int("message_len", len(req.Message)).Msg("chat request admitted")
	return req.Message, nil
}

func parseChatRequest(body []byte) (*ChatRequest, *GateError) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errBadRequest("Invalid JSON body")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errBadRequest(ShapeMessage)
	}
	message, ok := obj["message"].(string)
	if !ok {
		return nil, errBadRequest(ShapeMessage)
	}

	req := &ChatRequest{Message: strings.TrimSpace(message)}
	if reason := validator.First(req); reason != "" {
		return nil, errBadRequest(reason)
	}
	return req, nil
}

func writeGateError(w http.ResponseWriter, gerr *GateError) {
	if gerr.Status == http.StatusTooManyRequests {
		response.TooManyRequests(w, gerr.Message, retryAfter)
		return
	}
	response.Error(w, gerr.Status, gerr.Code, gerr.Message)
}
