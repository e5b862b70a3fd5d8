package domain

import "time"

// DefaultSessionTitle es el título placeholder de una sesión recién creada.
const DefaultSessionTitle = "New Neural Link"

type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
