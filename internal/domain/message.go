package domain

import "time"

// MessageRole identifies who produced a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one entry in the append-only conversation transcript.
// Messages are never mutated or removed once appended.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// TransactionID links an assistant reply to the transaction it
	// confirmed. Empty for user messages and non-confirming replies.
	TransactionID string `json:"transaction_id,omitempty"`
}
