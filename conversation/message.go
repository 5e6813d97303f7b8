package conversation

import (
	"time"

	"github.com/google/uuid"
)

// NewConversation is a row opened from the panel before any message
// arrives. It starts read and closed, with an empty preview.
type NewConversation struct {
	RemoteJID    string
	Instance     string
	ContactPhone string
	ContactName  *string
	Owner        uuid.UUID
	At           time.Time
}

// Message is one entry of the history kept next to a conversation
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Text           string    `db:"message_text" json:"message_text"`
	FromUser       bool      `db:"is_from_user" json:"is_from_user"`
	Sentiment      *string   `db:"sentiment" json:"sentiment"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// NewMessage is a message to append. Text must already be sanitized.
type NewMessage struct {
	ConversationID uuid.UUID
	Text           string
	FromUser       bool
	At             time.Time
}

// Template is a canned reply saved by a user
type Template struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Category  *string   `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NewTemplate struct {
	Owner    uuid.UUID
	Title    string
	Content  string
	Category *string
	At       time.Time
}
