package conversation

import (
	"context"
	"strings"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/Abraxas-365/crmturbo/validatex"
	"github.com/google/uuid"
)

// StartInput opens a conversation by hand from the panel
type StartInput struct {
	ContactPhone string `json:"contact_phone" validatex:"required,max=32"`
	ContactName  string `json:"contact_name" validatex:"max=255"`
	Instance     string `json:"instance_name" validatex:"pattern=instance"`
}

type SendInput struct {
	Text string `json:"text" validatex:"required"`
}

type TemplateInput struct {
	Title    string `json:"title" validatex:"required,max=255"`
	Content  string `json:"content" validatex:"required,max=5000"`
	Category string `json:"category" validatex:"max=100"`
}

// Start creates a conversation owned by the session user. The instance
// defaults to msgx.DefaultInstance so later webhook events for the same
// contact land on this row.
func (s *Service) Start(ctx context.Context, session auth.Session, in StartInput) (*Conversation, error) {
	if err := validatex.Validate(in); err != nil {
		return nil, err
	}
	jid, ok := msgx.JIDFromPhone(in.ContactPhone)
	if !ok {
		return nil, Registry.New(ErrInvalidPhone).WithDetail("contact_phone", in.ContactPhone)
	}
	instance := in.Instance
	if instance == "" {
		instance = msgx.DefaultInstance
	}

	conv, err := s.store.Create(ctx, NewConversation{
		RemoteJID:    jid,
		Instance:     instance,
		ContactPhone: msgx.PhoneFromJID(jid),
		ContactName:  msgx.ContactName(strings.TrimSpace(in.ContactName)),
		Owner:        session.UserID,
		At:           s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.With(logFields(conv)).Info("Conversation started from the panel")
	s.publish(ctx, EventCreated, Changed{Conversation: *conv})
	return conv, nil
}

// Send records a message written in the panel. Delivery to WhatsApp goes
// through the gateway proxy; this only keeps the history and preview.
func (s *Service) Send(ctx context.Context, session auth.Session, id uuid.UUID, in SendInput) (*Message, error) {
	text := msgx.SanitizeText(in.Text)
	if strings.TrimSpace(text) == "" {
		return nil, Registry.New(ErrEmptyMessage).WithDetail("conversation_id", id.String())
	}

	msg, conv, err := s.store.AppendMessage(ctx, session, NewMessage{
		ConversationID: id,
		Text:           text,
		FromUser:       true,
		At:             s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.With(logFields(conv)).Debug("Message recorded")
	s.publishMessage(ctx, *conv, *msg)
	return msg, nil
}

func (s *Service) Messages(ctx context.Context, session auth.Session, id uuid.UUID, opts storex.PaginationOptions) (storex.Paginated[Message], error) {
	return s.store.Messages(ctx, session, id, opts.Normalize())
}

func (s *Service) CreateTemplate(ctx context.Context, session auth.Session, in TemplateInput) (*Template, error) {
	if err := validatex.Validate(in); err != nil {
		return nil, err
	}

	var category *string
	if c := strings.TrimSpace(in.Category); c != "" {
		category = &c
	}
	tpl, err := s.store.CreateTemplate(ctx, NewTemplate{
		Owner:    session.UserID,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Category: category,
		At:       s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Template %q saved for %s", tpl.Title, session.UserID)
	return tpl, nil
}

func (s *Service) Templates(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[Template], error) {
	return s.store.Templates(ctx, session, opts.Normalize())
}
