package conversation

import "github.com/Abraxas-365/crmturbo/msgx"

const (
	EventCreated = "conversation.created"
	EventUpdated = "conversation.updated"
	EventOpened  = "conversation.opened"
	EventClosed  = "conversation.closed"

	EventMessageAdded = "conversation.message_added"
)

// Changed is the payload of every conversation event
type Changed struct {
	Conversation Conversation   `json:"conversation"`
	FromMe       bool           `json:"from_me,omitempty"`
	MediaKind    msgx.MediaKind `json:"media_kind,omitempty"`
	Preview      string         `json:"preview,omitempty"`
}

// MessageAdded is published after a message is appended from the panel
type MessageAdded struct {
	Conversation Conversation `json:"conversation"`
	Message      Message      `json:"message"`
}
