package chat

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

// flushRecorder records the body as seen at every flush.
type flushRecorder struct {
	*httptest.ResponseRecorder
	snapshots []string
	times     []time.Time
}

func (f *flushRecorder) Flush() {
	f.snapshots = append(f.snapshots, f.Body.String())
	f.times = append(f.times, time.Now())
	f.ResponseRecorder.Flush()
}

func TestStreamFlushesEachChunkSeparately(t *testing.T) {
	rec := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	delay := 30 * time.Millisecond

	if err := NewStreamer(delay).Stream(context.Background(), rec, "hello"); err != nil {
		t.Fatalf("stream: %v", err)
	}

	want := []string{
		"Connecting to OpenClaw tools...\n",
		"Connecting to OpenClaw tools...\nReceived: hello\n",
		"Connecting to OpenClaw tools...\nReceived: hello\nStreaming placeholder response.\n",
	}
	if len(rec.snapshots) != len(want) {
		t.Fatalf("expected %d flushes, got %d", len(want), len(rec.snapshots))
	}
	for i := range want {
		if rec.snapshots[i] != want[i] {
			t.Fatalf("flush %d: got %q want %q", i, rec.snapshots[i], want[i])
		}
	}
	for i := 1; i < len(rec.times); i++ {
		if gap := rec.times[i].Sub(rec.times[i-1]); gap < delay {
			t.Fatalf("chunks %d and %d only %v apart", i-1, i, gap)
		}
	}
	if rec.Header().Get("X-Accel-Buffering") != "no" {
		t.Fatalf("expected proxy buffering to be disabled")
	}
}

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []string

	err := NewStreamer(time.Hour).Run(ctx, "hi", func(chunk string) error {
		got = append(got, chunk)
		cancel()
		return nil
	})

	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one chunk before cancellation, got %d", len(got))
	}
}

func TestChunksPreserveMessage(t *testing.T) {
	chunks := Chunks("héllo 👋")
	if chunks[1] != "Received: héllo 👋\n" {
		t.Fatalf("unexpected chunk %q", chunks[1])
	}
}
