package models

// Roles carried by conversation messages. The backend records a "system"
// role alongside these, but it is never displayed by the client.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn within a consultation. Timestamps come from the
// backend as opaque strings and are rendered as-is.
type Message struct {
	ID        string `json:"_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Conversation is a consultation owned by the backend. The client only ever
// holds a read-through copy of the one it is currently viewing.
type Conversation struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Ended     bool      `json:"ended"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}
