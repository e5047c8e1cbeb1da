package chatclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecoderCarriesSplitCharacters(t *testing.T) {
	full := []byte("Received: héllo 👋 ✓\n")

	// Split at every possible position, including inside multi-byte runes.
	for i := 0; i <= len(full); i++ {
		var dec Decoder
		a, err := dec.Decode(full[:i])
		require.NoError(t, err)
		b, err := dec.Decode(full[i:])
		require.NoError(t, err)
		require.NoError(t, dec.Close())

		got := a + b
		require.Equal(t, string(full), got, "split at %d", i)
		require.NotContains(t, got, "�")
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	full := []byte("日本語 🚀")
	var (
		dec Decoder
		sb  strings.Builder
	)
	for _, b := range full {
		text, err := dec.Decode([]byte{b})
		require.NoError(t, err)
		sb.WriteString(text)
	}
	require.NoError(t, dec.Close())
	require.Equal(t, string(full), sb.String())
}

func TestDecoderRejectsInvalidBytes(t *testing.T) {
	var dec Decoder
	_, err := dec.Decode([]byte{'a', 0xff, 'b'})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecoderReportsTruncatedTail(t *testing.T) {
	var dec Decoder
	text, err := dec.Decode([]byte{'o', 'k', 0xe2, 0x9c})
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.ErrorIs(t, dec.Close(), ErrTruncatedUTF8)
}

func TestTranscriptReplacesAssistantLine(t *testing.T) {
	var tr Transcript
	tr.AddUser("hi")
	tr.SetAssistant("Conn")
	tr.SetAssistant("Connecting")
	require.Equal(t, []string{"You: hi", "Assistant: Connecting"}, tr.Strings())

	tr.AddUser("again")
	tr.SetAssistant("second")
	require.Equal(t, []string{"You: hi", "Assistant: Connecting", "You: again", "Assistant: second"}, tr.Strings())

	tr.AddSystem("oops")
	tr.SetAssistant("new turn")
	require.Len(t, tr.Lines(), 6)
}

// splitWriter sends the body in the given pieces, flushing after each.
func splitWriter(pieces ...[]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		for _, p := range pieces {
			_, _ = w.Write(p)
			w.(http.Flusher).Flush()
		}
	}
}

func TestSendRendersStreamedReply(t *testing.T) {
	reply := []byte("Connecting to OpenClaw tools...\nReceived: café\nStreaming placeholder response.\n")
	cut := strings.Index(string(reply), "é") + 1 // inside the two-byte é

	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		splitWriter(reply[:cut], reply[cut:])(w, r)
	}))
	defer server.Close()

	var (
		tr      Transcript
		updates int
	)
	err := NewClient(server.URL, "token", nil).Send(context.Background(), &tr, "  café ", func(Line) { updates++ })
	require.NoError(t, err)

	require.Equal(t, "Bearer token", gotAuth)
	require.JSONEq(t, `{"message":"café"}`, gotBody)
	require.Equal(t, []string{"You: café", "Assistant: " + string(reply)}, tr.Strings())
	require.GreaterOrEqual(t, updates, 1)
}

func TestSendSurfacesServerErrorAsSystemLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":"Rate limit exceeded.","code":"RATE_LIMIT_EXCEEDED"}`))
	}))
	defer server.Close()

	var tr Transcript
	err := NewClient(server.URL, "", nil).Send(context.Background(), &tr, "hi", nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.Status)
	require.Equal(t, []string{"You: hi", "System: Rate limit exceeded."}, tr.Strings())
}

func TestSendEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var tr Transcript
	err := NewClient(server.URL, "", nil).Send(context.Background(), &tr, "hi", nil)
	require.Error(t, err)
	require.Equal(t, "System: The server returned an empty response.", tr.Strings()[1])
}

func TestSendInvalidUTF8StopsWithSystemLine(t *testing.T) {
	server := httptest.NewServer(splitWriter([]byte("ok "), []byte{0xff, 0xfe}))
	defer server.Close()

	var tr Transcript
	err := NewClient(server.URL, "", nil).Send(context.Background(), &tr, "hi", nil)
	require.ErrorIs(t, err, ErrInvalidUTF8)

	require.Equal(t, []string{"You: hi", "System: The response could not be decoded."}, tr.Strings())
}

func TestSendDropsPartialReplyWhenStreamBreaks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Connecting to OpenClaw tools...\n"))
		w.(http.Flusher).Flush()
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte{0xff})
	}))
	defer server.Close()

	var (
		tr      Transcript
		updates []Line
	)
	err := NewClient(server.URL, "", nil).Send(context.Background(), &tr, "hi", func(l Line) { updates = append(updates, l) })
	require.ErrorIs(t, err, ErrInvalidUTF8)

	require.Equal(t, []string{"You: hi", "System: The response could not be decoded."}, tr.Strings())
	require.Equal(t, RoleAssistant, updates[0].Role)
	require.Equal(t, RoleSystem, updates[len(updates)-1].Role)
}

func TestFailTurnWithoutReplyAppends(t *testing.T) {
	var tr Transcript
	tr.AddUser("hi")
	tr.FailTurn("Request failed.")
	tr.SetAssistant("next")

	require.Equal(t, []string{"You: hi", "System: Request failed.", "Assistant: next"}, tr.Strings())
}

func TestSendIgnoresBlankInput(t *testing.T) {
	var tr Transcript
	require.NoError(t, NewClient("http://127.0.0.1:0", "", nil).Send(context.Background(), &tr, "   ", nil))
	require.Empty(t, tr.Lines())
}
