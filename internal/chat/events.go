package chat

import "andse-chat/internal/domain"

// Nombres de eventos del canal de streaming. join y send_message viajan
// cliente→servidor; el resto servidor→cliente.
const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventSessionCreated = "session_created"
	EventTypingStart    = "typing_start"
	EventMessageChunk   = "message_chunk"
	EventTypingEnd      = "typing_end"
	EventUpdateTitle    = "update_title"
)

// Event es el sobre JSON de todos los frames del canal. Los campos de
// payload son opcionales según el evento.
type Event struct {
	Name       string             `json:"event"`
	SessionID  string             `json:"session_id"`
	Message    string             `json:"message,omitempty"`
	Chunk      string             `json:"chunk,omitempty"`
	Title      string             `json:"title,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}
