package chat

// ChatRequest is the validated chat body. Message is already trimmed.
type ChatRequest struct {
	Message string `json:"message" validate:"notblank,max=4000"`
}

// Frame is a JSON control frame on the websocket transport. Chunks are sent
// as plain text frames.
type Frame struct {
	Type   string `json:"type"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

const (
	FrameDone  = "done"
	FrameError = "error"
)
