package model

import (
	"context"
	"time"
)

// TranscriptRepository stores answered exchanges per chat session. It is an
// audit trail for hotel staff; the pipeline never reads it back.
type TranscriptRepository interface {
	// Append adds an exchange to the session's transcript
	Append(ctx context.Context, sessionID string, exchange Exchange) error

	// Load returns the session's exchanges, oldest first
	Load(ctx context.Context, sessionID string) ([]Exchange, error)

	// Clear removes the session's transcript
	Clear(ctx context.Context, sessionID string) error
}

// Exchange is one answered message.
type Exchange struct {
	RequestID string    `json:"request_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Source    Source    `json:"source"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
