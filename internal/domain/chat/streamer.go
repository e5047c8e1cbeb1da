package chat

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultChunkDelay separates consecutive chunks.
const DefaultChunkDelay = 250 * time.Millisecond

// Streamer produces the scripted assistant reply.
type Streamer struct {
	delay time.Duration
}

// NewStreamer creates a streamer. A negative delay uses the default.
func NewStreamer(delay time.Duration) *Streamer {
	if delay < 0 {
		delay = DefaultChunkDelay
	}
	return &Streamer{delay: delay}
}

// Chunks returns the reply for message, in order.
func Chunks(message string) []string {
	return []string{
		"Connecting to OpenClaw tools...\n",
		"Received: " + message + "\n",
		"Streaming placeholder response.\n",
	}
}

// Run hands each chunk to emit, waiting between chunks. It stops early when
// ctx is done or emit fails.
func (s *Streamer) Run(ctx context.Context, message string, emit func(chunk string) error) error {
	chunks := Chunks(message)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
		if i == len(chunks)-1 || s.delay == 0 {
			continue
		}

		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Stream writes the reply as a chunked plain-text response, flushing after
// every chunk.
func (s *Streamer) Stream(ctx context.Context, w http.ResponseWriter, message string) error {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	return s.Run(ctx, message, func(chunk string) error {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	})
}
