package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const readBufferSize = 4096

// StatusError is a non-2xx reply from the chat endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatclient: status %d: %s", e.Status, e.Message)
}

// Client sends chat messages and follows the streamed reply.
type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
}

// NewClient creates a client. httpClient may be nil. No overall timeout is
// set since replies stream.
func NewClient(baseURL, accessToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		}}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        httpClient,
	}
}

// Send posts message and grows the assistant line of t as chunks arrive,
// calling onUpdate with every changed line. Any failure replaces the partial
// reply with a single system line and is returned.
func (c *Client) Send(ctx context.Context, t *Transcript, message string, onUpdate func(Line)) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if onUpdate == nil {
		onUpdate = func(Line) {}
	}

	t.AddUser(message)

	fail := func(text string, err error) error {
		onUpdate(t.FailTurn(text))
		return err
	}

	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fail("Could not encode the message.", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return fail("Could not build the request.", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail("Request failed: "+err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Status: resp.StatusCode, Message: errorMessage(resp)}
		return fail(statusErr.Message, statusErr)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		err := errors.New("chatclient: response has no body")
		return fail("The server returned an empty response.", err)
	}

	var (
		dec       Decoder
		assistant strings.Builder
		buf       = make([]byte, readBufferSize)
	)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			text, err := dec.Decode(buf[:n])
			if err != nil {
				return fail("The response could not be decoded.", err)
			}
			if text != "" {
				assistant.WriteString(text)
				onUpdate(t.SetAssistant(assistant.String()))
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fail("The response stream was interrupted.", readErr)
		}
	}

	if err := dec.Close(); err != nil {
		return fail("The response could not be decoded.", err)
	}
	return nil
}

// errorMessage prefers the server's "error" field over the status text.
func errorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("Request failed with status %d.", resp.StatusCode)
}
