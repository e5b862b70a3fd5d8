package domain

import "time"

// Roles válidos para un mensaje persistido.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	Sender     string      `json:"sender"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
