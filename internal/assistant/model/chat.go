package model

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
	Cached   bool   `json:"cached"`
}

// Source records which pipeline stage produced a response.
type Source string

const (
	SourceCache    Source = "cache"
	SourceCanned   Source = "canned"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Resolution is the pipeline's result for one message.
type Resolution struct {
	Response    string
	Cached      bool
	Source      Source
	Intent      string
	Fingerprint string
	RequestID   string
}
