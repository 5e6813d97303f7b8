package conversation

import (
	"context"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/eventx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
)

// Service is the only path from handlers to a Store
type Service struct {
	store  Store
	events eventx.Publisher
	logger *logx.Logger
	now    func() time.Time
}

type ServiceOption func(*Service)

func WithPublisher(p eventx.Publisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

func WithLogger(l *logx.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		events: eventx.Discard{},
		logger: logx.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest folds one gateway message into its conversation
func (s *Service) Ingest(ctx context.Context, instance string, msg *msgx.InboundMessage) (*Conversation, bool, error) {
	owner := s.ResolveOwner(ctx, instance)

	conv, created, err := s.store.Upsert(ctx, Upsert{
		RemoteJID:    msg.RemoteJID,
		Instance:     instance,
		ContactPhone: msgx.PhoneFromJID(msg.RemoteJID),
		ContactName:  msgx.ContactName(msg.PushName),
		Text:         msgx.SanitizeText(msg.Text()),
		FromMe:       msg.FromMe,
		Owner:        owner,
		At:           s.now().UTC(),
	})
	if err != nil {
		return nil, false, err
	}

	media := msg.Media()
	log := s.logger.With(logFields(conv))
	if created {
		log.Info("Conversation created (unread=%d, media=%s)", conv.UnreadCount, media.Kind())
	} else {
		log.Info("Conversation updated (fromMe=%t, open=%t, unread=%d)", msg.FromMe, conv.IsOpen, conv.UnreadCount)
	}

	eventType := EventUpdated
	if created {
		eventType = EventCreated
	}
	s.publish(ctx, eventType, Changed{
		Conversation: *conv,
		FromMe:       msg.FromMe,
		MediaKind:    media.Kind(),
		Preview:      msgx.Truncate(media.Describe(), 120),
	})
	return conv, created, nil
}

// ResolveOwner picks the user a new row for instance belongs to: the
// explicit binding, then the owner of an existing row, then the system user.
// Lookup failures are logged and fall through to the next source.
func (s *Service) ResolveOwner(ctx context.Context, instance string) uuid.UUID {
	if instance == "" {
		return auth.SystemUserID
	}

	owner, ok, err := s.store.InstanceOwner(ctx, instance)
	if err != nil {
		s.logger.Warn("Instance binding lookup for %s failed: %v", instance, err)
	} else if ok {
		return owner
	}

	owner, ok, err = s.store.FindOwnerByInstance(ctx, instance)
	if err != nil {
		s.logger.Warn("Owner lookup for %s failed, using system user: %v", instance, err)
	} else if ok {
		return owner
	}
	return auth.SystemUserID
}

// BindInstance gives instance to the session user
func (s *Service) BindInstance(ctx context.Context, session auth.Session, instance string) error {
	if !msgx.ValidInstanceName(instance) {
		return msgx.Registry.New(msgx.ErrInvalidInstance).WithDetail("instance", instance)
	}
	if err := s.store.BindInstance(ctx, instance, session.UserID); err != nil {
		return err
	}
	s.logger.Info("Instance %s bound to %s", instance, session.UserID)
	return nil
}

func (s *Service) List(ctx context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[Conversation], error) {
	return s.store.List(ctx, session, opts.Normalize())
}

// Open marks a conversation focused and read
func (s *Service) Open(ctx context.Context, session auth.Session, id uuid.UUID) (*Conversation, error) {
	return s.setOpen(ctx, session, id, true)
}

func (s *Service) Close(ctx context.Context, session auth.Session, id uuid.UUID) (*Conversation, error) {
	return s.setOpen(ctx, session, id, false)
}

func (s *Service) setOpen(ctx context.Context, session auth.Session, id uuid.UUID, open bool) (*Conversation, error) {
	conv, err := s.store.SetOpen(ctx, session, id, open)
	if err != nil {
		return nil, err
	}
	eventType := EventClosed
	if open {
		eventType = EventOpened
	}
	s.publish(ctx, eventType, Changed{Conversation: *conv})
	return conv, nil
}

// ParseID turns a path parameter into a conversation id
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, Registry.NewWithCause(ErrInvalidID, err).WithDetail("id", raw)
	}
	return id, nil
}

// publish never fails the caller; subscribers are notified best effort
func (s *Service) publish(ctx context.Context, eventType string, payload Changed) {
	event := eventx.NewEvent(eventType, payload, eventx.EventOptions{
		Now:      s.now,
		Metadata: map[string]any{"instance": payload.Conversation.InstanceName},
	})
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Publishing %s failed: %v", eventType, err)
	}
}

func (s *Service) publishMessage(ctx context.Context, conv Conversation, msg Message) {
	event := eventx.NewEvent(EventMessageAdded, MessageAdded{Conversation: conv, Message: msg}, eventx.EventOptions{
		Now:      s.now,
		Metadata: map[string]any{"instance": conv.InstanceName},
	})
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Publishing %s failed: %v", EventMessageAdded, err)
	}
}

func logFields(c *Conversation) logx.Fields {
	return logx.Fields{"remote_jid": c.RemoteJID, "instance": c.InstanceName}
}
