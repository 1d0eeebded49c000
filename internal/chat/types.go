package chat

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a chat or message does not exist.
var ErrNotFound = errors.New("chat not found")

// Chat is a conversation session.
type Chat struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Message is one turn in a chat. User messages may carry attached
// filenames; assistant messages produced by a retrieval query carry the
// structured answer payload in Metadata.
type Message struct {
	ID        int64           `json:"id"`
	ChatID    string          `json:"chat_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Files     []string        `json:"files,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Feedback is a user rating of an assistant message.
type Feedback struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
