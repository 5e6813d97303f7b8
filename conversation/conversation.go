// Package conversation keeps one row per (contact, gateway instance) with
// the latest message preview and an unread counter.
package conversation

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
)

var (
	Registry = errx.NewRegistry("CONV")

	ErrNotFound      = Registry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Conversation not found")
	ErrInvalidID     = Registry.Register("INVALID_ID", errx.TypeValidation, http.StatusBadRequest, "Invalid conversation id")
	ErrInstanceBound = Registry.Register("INSTANCE_BOUND", errx.TypeConflict, http.StatusConflict, "Instance is bound to another user")
	ErrExists        = Registry.Register("EXISTS", errx.TypeConflict, http.StatusConflict, "Conversation already exists")
	ErrInvalidPhone  = Registry.Register("INVALID_PHONE", errx.TypeValidation, http.StatusBadRequest, "Invalid contact phone")
	ErrEmptyMessage  = Registry.Register("EMPTY_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "Message text is required")
)

// Conversation is the per-contact summary shown in the panel
type Conversation struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	RemoteJID     string    `db:"remote_jid" json:"remote_jid"`
	InstanceName  string    `db:"instance_name" json:"instance_name"`
	ContactPhone  string    `db:"contact_phone" json:"contact_phone"`
	ContactName   *string   `db:"contact_name" json:"contact_name"`
	LastMessage   string    `db:"last_message" json:"last_message"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount   int       `db:"unread_count" json:"unread_count"`
	IsOpen        bool      `db:"is_open" json:"is_open"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Upsert is one inbound or outbound message to fold into a conversation.
// Text must already be sanitized.
type Upsert struct {
	RemoteJID    string
	Instance     string
	ContactPhone string
	ContactName  *string
	Text         string
	FromMe       bool
	// Owner only applies when the row is created
	Owner uuid.UUID
	At    time.Time
}

// InitialUnread is the unread count of a freshly created row
func (u Upsert) InitialUnread() int {
	if u.FromMe {
		return 0
	}
	return 1
}

// Store persists conversations and instance bindings.
//
// Upsert must be atomic: a new row gets InitialUnread and is_open=false;
// an existing row only changes last_message, last_message_at, updated_at
// and, iff the message is inbound and the stored row is not open,
// unread_count+1. The bool result reports whether the row was created.
type Store interface {
	Upsert(ctx context.Context, u Upsert) (*Conversation, bool, error)

	// FindOwnerByInstance returns the owner of the oldest row for instance
	// that is not owned by auth.SystemUserID
	FindOwnerByInstance(ctx context.Context, instance string) (uuid.UUID, bool, error)

	// BindInstance records userID as the instance owner. Rebinding to the
	// same user is a no-op; another user gets ErrInstanceBound.
	BindInstance(ctx context.Context, instance string, userID uuid.UUID) error
	InstanceOwner(ctx context.Context, instance string) (uuid.UUID, bool, error)

	// List returns the session user's rows, most recent message first
	List(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[Conversation], error)

	// SetOpen flips the focus flag on a row the session user owns.
	// Opening resets unread_count to 0.
	SetOpen(ctx context.Context, session auth.Session, id uuid.UUID, open bool) (*Conversation, error)

	// Create inserts a row started from the panel. An existing row for the
	// same (remote_jid, instance_name) yields ErrExists.
	Create(ctx context.Context, c NewConversation) (*Conversation, error)

	// AppendMessage records a message on a row the session user owns and
	// moves the row's last_message and last_message_at to it, atomically.
	// unread_count and is_open are left alone.
	AppendMessage(ctx context.Context, session auth.Session, m NewMessage) (*Message, *Conversation, error)

	// Messages lists a conversation's history, oldest first
	Messages(ctx context.Context, session auth.Session, conversationID uuid.UUID, opts storex.PaginationOptions) (storex.Paginated[Message], error)

	CreateTemplate(ctx context.Context, t NewTemplate) (*Template, error)

	// Templates lists the session user's templates, newest first
	Templates(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[Template], error)
}

// NotFound builds the error stores return for a missing or foreign row
func NotFound(id uuid.UUID) error {
	return Registry.New(ErrNotFound).WithDetail("id", id.String())
}

// Exists builds the error stores return when Create hits an existing key
func Exists(remoteJID, instance string) error {
	return Registry.New(ErrExists).
		WithDetail("remote_jid", remoteJID).
		WithDetail("instance", instance)
}

// InstanceBound builds the error stores return when instance has another owner
func InstanceBound(instance string) error {
	return Registry.New(ErrInstanceBound).WithDetail("instance", instance)
}
