package chat

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/domain/ratelimit"
	"github.com/xecbot/xecbot-api/internal/middleware"
	"github.com/xecbot/xecbot-api/internal/pkg/response"
)

// WebSocket constants
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var retryAfter = ratelimit.Window

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// WebSocket handles GET /api/chat/ws. Every inbound text frame is one chat
// request and goes through the same gate as POST /api/chat.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required")
		return
	}
	ip := h.ips.FromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go ws.keepAlive(ctx)

	conn.SetReadLimit(maxBodyBytes)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("WebSocket set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(ctx).Debug().Err(err).Str("user_id", userID).Msg("WebSocket read error")
			}
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		message, gerr := h.admit(ctx, userID, ip, body)
		if gerr != nil {
			if err := ws.writeJSON(Frame{Type: FrameError, Status: gerr.Status, Error: gerr.Message, Code: gerr.Code}); err != nil {
				return
			}
			continue
		}

		err = h.streamer.Run(ctx, message, func(chunk string) error {
			return ws.write(websocket.TextMessage, []byte(chunk))
		})
		if err != nil {
			return
		}
		if err := ws.writeJSON(Frame{Type: FrameDone}); err != nil {
			return
		}
	}
}

func (c *wsConn) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Non-browser clients send no Origin.
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
		return false
	}
}
