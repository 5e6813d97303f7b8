// Package memstore is an in-process conversation.Store for tests and
// single-node development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
)

type key struct {
	remoteJID string
	instance  string
}

type Store struct {
	mu        sync.Mutex
	rows      map[key]*conversation.Conversation
	bindings  map[string]uuid.UUID
	messages  []conversation.Message
	templates []conversation.Template
	// Now stamps SetOpen updates
	Now func() time.Time
}

func New() *Store {
	return &Store{
		rows:     make(map[key]*conversation.Conversation),
		bindings: make(map[string]uuid.UUID),
		Now:      time.Now,
	}
}

var _ conversation.Store = (*Store)(nil)

func (s *Store) Create(_ context.Context, n conversation.NewConversation) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{n.RemoteJID, n.Instance}
	if _, ok := s.rows[k]; ok {
		return nil, conversation.Exists(n.RemoteJID, n.Instance)
	}
	c := &conversation.Conversation{
		ID:            uuid.New(),
		UserID:        n.Owner,
		RemoteJID:     n.RemoteJID,
		InstanceName:  n.Instance,
		ContactPhone:  n.ContactPhone,
		ContactName:   n.ContactName,
		LastMessageAt: n.At,
		CreatedAt:     n.At,
		UpdatedAt:     n.At,
	}
	s.rows[k] = c
	out := *c
	return &out, nil
}

func (s *Store) Upsert(_ context.Context, u conversation.Upsert) (*conversation.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{u.RemoteJID, u.Instance}
	if c, ok := s.rows[k]; ok {
		c.LastMessage = u.Text
		c.LastMessageAt = u.At
		c.UpdatedAt = u.At
		if !u.FromMe && !c.IsOpen {
			c.UnreadCount++
		}
		out := *c
		return &out, false, nil
	}

	c := &conversation.Conversation{
		ID:            uuid.New(),
		UserID:        u.Owner,
		RemoteJID:     u.RemoteJID,
		InstanceName:  u.Instance,
		ContactPhone:  u.ContactPhone,
		ContactName:   u.ContactName,
		LastMessage:   u.Text,
		LastMessageAt: u.At,
		UnreadCount:   u.InitialUnread(),
		CreatedAt:     u.At,
		UpdatedAt:     u.At,
	}
	s.rows[k] = c
	out := *c
	return &out, true, nil
}

func (s *Store) FindOwnerByInstance(_ context.Context, instance string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first *conversation.Conversation
	for _, c := range s.rows {
		if c.InstanceName != instance || c.UserID == auth.SystemUserID {
			continue
		}
		if first == nil || c.CreatedAt.Before(first.CreatedAt) {
			first = c
		}
	}
	if first == nil {
		return uuid.Nil, false, nil
	}
	return first.UserID, true, nil
}

func (s *Store) BindInstance(_ context.Context, instance string, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.bindings[instance]; ok && owner != userID {
		return conversation.InstanceBound(instance)
	}
	s.bindings[instance] = userID
	return nil
}

func (s *Store) InstanceOwner(_ context.Context, instance string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.bindings[instance]
	return owner, ok, nil
}

func (s *Store) List(_ context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Conversation], error) {
	opts = opts.Normalize()

	s.mu.Lock()
	var mine []conversation.Conversation
	for _, c := range s.rows {
		if c.UserID == session.UserID {
			mine = append(mine, *c)
		}
	}
	s.mu.Unlock()

	sort.Slice(mine, func(i, j int) bool {
		if mine[i].LastMessageAt.Equal(mine[j].LastMessageAt) {
			return mine[i].ID.String() < mine[j].ID.String()
		}
		return mine[i].LastMessageAt.After(mine[j].LastMessageAt)
	})

	return paginate(mine, opts), nil
}

func (s *Store) SetOpen(_ context.Context, session auth.Session, id uuid.UUID, open bool) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.rows {
		if c.ID != id || c.UserID != session.UserID {
			continue
		}
		c.IsOpen = open
		if open {
			c.UnreadCount = 0
		}
		c.UpdatedAt = s.Now().UTC()
		out := *c
		return &out, nil
	}
	return nil, conversation.NotFound(id)
}

// owned returns the caller's row with id. The lock must be held.
func (s *Store) owned(session auth.Session, id uuid.UUID) (*conversation.Conversation, bool) {
	for _, c := range s.rows {
		if c.ID == id && c.UserID == session.UserID {
			return c, true
		}
	}
	return nil, false
}

func (s *Store) AppendMessage(_ context.Context, session auth.Session, m conversation.NewMessage) (*conversation.Message, *conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.owned(session, m.ConversationID)
	if !ok {
		return nil, nil, conversation.NotFound(m.ConversationID)
	}
	msg := conversation.Message{
		ID:             uuid.New(),
		ConversationID: c.ID,
		UserID:         session.UserID,
		Text:           m.Text,
		FromUser:       m.FromUser,
		CreatedAt:      m.At,
	}
	s.messages = append(s.messages, msg)

	c.LastMessage = m.Text
	c.LastMessageAt = m.At
	c.UpdatedAt = m.At
	out := *c
	return &msg, &out, nil
}

func (s *Store) Messages(_ context.Context, session auth.Session, id uuid.UUID, opts storex.PaginationOptions) (storex.Paginated[conversation.Message], error) {
	opts = opts.Normalize()

	s.mu.Lock()
	if _, ok := s.owned(session, id); !ok {
		s.mu.Unlock()
		return storex.Paginated[conversation.Message]{}, conversation.NotFound(id)
	}
	var history []conversation.Message
	for _, m := range s.messages {
		if m.ConversationID == id {
			history = append(history, m)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return paginate(history, opts), nil
}

func (s *Store) CreateTemplate(_ context.Context, n conversation.NewTemplate) (*conversation.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl := conversation.Template{
		ID:        uuid.New(),
		UserID:    n.Owner,
		Title:     n.Title,
		Content:   n.Content,
		Category:  n.Category,
		CreatedAt: n.At,
	}
	s.templates = append(s.templates, tpl)
	return &tpl, nil
}

func (s *Store) Templates(_ context.Context, session auth.Session, opts storex.PaginationOptions) (storex.Paginated[conversation.Template], error) {
	opts = opts.Normalize()

	s.mu.Lock()
	var mine []conversation.Template
	for _, t := range s.templates {
		if t.UserID == session.UserID {
			mine = append(mine, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return paginate(mine, opts), nil
}

func paginate[T any](items []T, opts storex.PaginationOptions) storex.Paginated[T] {
	total := len(items)
	start := min(opts.Offset(), total)
	end := min(start+opts.PageSize, total)
	return storex.NewPaginated(items[start:end], opts.Page, opts.PageSize, total)
}
