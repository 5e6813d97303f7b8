// Package conversationtest holds the behaviour every conversation.Store
// must share, run against each implementation from its own tests.
package conversationtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store
type Factory func(t *testing.T) conversation.Store

// Base is a millisecond-aligned instant every backend round-trips exactly
var Base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const jid = "5511999@s.whatsapp.net"

func msg(fromMe bool, text string, at time.Time, owner uuid.UUID) conversation.Upsert {
	name := "Ana"
	return conversation.Upsert{
		RemoteJID:    jid,
		Instance:     "crm-turbo",
		ContactPhone: "5511999",
		ContactName:  &name,
		Text:         text,
		FromMe:       fromMe,
		Owner:        owner,
		At:           at,
	}
}

// Run executes the shared suite
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("create inbound", func(t *testing.T) {
		s := newStore(t)
		c, created, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, c.UnreadCount)
		assert.False(t, c.IsOpen)
		assert.Equal(t, "Oi", c.LastMessage)
		assert.Equal(t, owner, c.UserID)
		assert.Equal(t, "Ana", *c.ContactName)
		assert.True(t, Base.Equal(c.LastMessageAt))
		assert.NotEqual(t, uuid.Nil, c.ID)
	})

	t.Run("create outbound", func(t *testing.T) {
		s := newStore(t)
		c, created, err := s.Upsert(ctx, msg(true, "Olá", Base, owner))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 0, c.UnreadCount)
	})

	t.Run("update closed inbound increments", func(t *testing.T) {
		s := newStore(t)
		first, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)

		later := Base.Add(time.Minute)
		other := uuid.New()
		u := msg(false, "Tudo bem?", later, other)
		u.ContactName = nil
		c, created, err := s.Upsert(ctx, u)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, c.ID)
		assert.Equal(t, 2, c.UnreadCount)
		assert.Equal(t, "Tudo bem?", c.LastMessage)
		assert.True(t, later.Equal(c.LastMessageAt))
		assert.True(t, later.Equal(c.UpdatedAt))
		assert.True(t, Base.Equal(c.CreatedAt))
		assert.Equal(t, owner, c.UserID, "owner is fixed at creation")
		require.NotNil(t, c.ContactName, "contact name is fixed at creation")
		assert.Equal(t, "Ana", *c.ContactName)
	})

	t.Run("update outbound keeps count", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)
		c, _, err := s.Upsert(ctx, msg(true, "Resposta", Base.Add(time.Second), owner))
		require.NoError(t, err)
		assert.Equal(t, 1, c.UnreadCount)
		assert.Equal(t, "Resposta", c.LastMessage)
	})

	t.Run("update open keeps count", func(t *testing.T) {
		s := newStore(t)
		c, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)

		opened, err := s.SetOpen(ctx, auth.Session{UserID: owner}, c.ID, true)
		require.NoError(t, err)
		assert.True(t, opened.IsOpen)
		assert.Equal(t, 0, opened.UnreadCount)

		c, _, err = s.Upsert(ctx, msg(false, "De novo", Base.Add(time.Second), owner))
		require.NoError(t, err)
		assert.Equal(t, 0, c.UnreadCount)
		assert.Equal(t, "De novo", c.LastMessage)

		closed, err := s.SetOpen(ctx, auth.Session{UserID: owner}, c.ID, false)
		require.NoError(t, err)
		assert.False(t, closed.IsOpen)

		c, _, err = s.Upsert(ctx, msg(false, "Mais uma", Base.Add(2*time.Second), owner))
		require.NoError(t, err)
		assert.Equal(t, 1, c.UnreadCount)
	})

	t.Run("replay increments twice", func(t *testing.T) {
		s := newStore(t)
		u := msg(false, "Oi", Base, owner)
		_, _, err := s.Upsert(ctx, u)
		require.NoError(t, err)
		c, created, err := s.Upsert(ctx, u)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 2, c.UnreadCount)
	})

	t.Run("keyed by instance", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)
		u := msg(false, "Oi", Base, owner)
		u.Instance = "loja"
		_, created, err := s.Upsert(ctx, u)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("stores text verbatim", func(t *testing.T) {
		s := newStore(t)
		text := "$set " + strings.Repeat("x", 4990)
		c, _, err := s.Upsert(ctx, msg(false, text, Base, owner))
		require.NoError(t, err)
		assert.Equal(t, text, c.LastMessage)
	})

	t.Run("owner by instance", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.FindOwnerByInstance(ctx, "crm-turbo")
		require.NoError(t, err)
		assert.False(t, ok)

		_, _, err = s.Upsert(ctx, msg(false, "Oi", Base, auth.SystemUserID))
		require.NoError(t, err)
		_, ok, err = s.FindOwnerByInstance(ctx, "crm-turbo")
		require.NoError(t, err)
		assert.False(t, ok, "system rows are skipped")

		u := msg(false, "Oi", Base.Add(time.Minute), owner)
		u.RemoteJID = "5511888@s.whatsapp.net"
		_, _, err = s.Upsert(ctx, u)
		require.NoError(t, err)

		later := msg(false, "Oi", Base.Add(time.Hour), uuid.New())
		later.RemoteJID = "5511777@s.whatsapp.net"
		_, _, err = s.Upsert(ctx, later)
		require.NoError(t, err)

		got, ok, err := s.FindOwnerByInstance(ctx, "crm-turbo")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, owner, got, "oldest row wins")
	})

	t.Run("bindings", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.InstanceOwner(ctx, "loja")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.BindInstance(ctx, "loja", owner))
		require.NoError(t, s.BindInstance(ctx, "loja", owner))

		err = s.BindInstance(ctx, "loja", uuid.New())
		assert.True(t, errx.IsCode(err, conversation.ErrInstanceBound))

		got, ok, err := s.InstanceOwner(ctx, "loja")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, owner, got)
	})

	t.Run("list is scoped and ordered", func(t *testing.T) {
		s := newStore(t)
		for i, phone := range []string{"1", "2", "3"} {
			u := msg(false, "m"+phone, Base.Add(time.Duration(i)*time.Minute), owner)
			u.RemoteJID = phone + "@s.whatsapp.net"
			_, _, err := s.Upsert(ctx, u)
			require.NoError(t, err)
		}
		foreign := msg(false, "x", Base, uuid.New())
		foreign.RemoteJID = "9@s.whatsapp.net"
		_, _, err := s.Upsert(ctx, foreign)
		require.NoError(t, err)

		page, err := s.List(ctx, auth.Session{UserID: owner}, storex.PaginationOptions{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Page.Total)
		assert.Equal(t, 2, page.Page.Pages)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "m3", page.Data[0].LastMessage)
		assert.Equal(t, "m2", page.Data[1].LastMessage)
		assert.True(t, page.Page.HasNext)

		page, err = s.List(ctx, auth.Session{UserID: owner}, storex.PaginationOptions{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "m1", page.Data[0].LastMessage)

		page, err = s.List(ctx, auth.Session{UserID: uuid.New()}, storex.PaginationOptions{})
		require.NoError(t, err)
		assert.True(t, page.Empty)
		assert.NotNil(t, page.Data)
	})

	t.Run("set open is scoped", func(t *testing.T) {
		s := newStore(t)
		c, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)

		_, err = s.SetOpen(ctx, auth.Session{UserID: uuid.New()}, c.ID, true)
		assert.True(t, errx.IsCode(err, conversation.ErrNotFound))

		_, err = s.SetOpen(ctx, auth.Session{UserID: owner}, uuid.New(), true)
		assert.True(t, errx.IsCode(err, conversation.ErrNotFound))
	})

	t.Run("create starts read and closed", func(t *testing.T) {
		s := newStore(t)
		c, err := s.Create(ctx, start(jid, owner, Base))
		require.NoError(t, err)
		assert.Equal(t, owner, c.UserID)
		assert.Equal(t, 0, c.UnreadCount)
		assert.False(t, c.IsOpen)
		assert.Empty(t, c.LastMessage)
		assert.True(t, Base.Equal(c.CreatedAt))

		_, err = s.Create(ctx, start(jid, uuid.New(), Base))
		assert.True(t, errx.IsCode(err, conversation.ErrExists))

		up, created, err := s.Upsert(ctx, msg(false, "Oi", Base.Add(time.Minute), uuid.New()))
		require.NoError(t, err)
		assert.False(t, created, "webhook lands on the started row")
		assert.Equal(t, c.ID, up.ID)
		assert.Equal(t, owner, up.UserID)
		assert.Equal(t, 1, up.UnreadCount)
	})

	t.Run("append message moves preview", func(t *testing.T) {
		s := newStore(t)
		c, _, err := s.Upsert(ctx, msg(false, "Oi", Base, owner))
		require.NoError(t, err)

		later := Base.Add(time.Minute)
		m, conv, err := s.AppendMessage(ctx, auth.Session{UserID: owner}, conversation.NewMessage{
			ConversationID: c.ID, Text: "Olá, como posso ajudar?", FromUser: true, At: later,
		})
		require.NoError(t, err)
		assert.Equal(t, c.ID, m.ConversationID)
		assert.Equal(t, owner, m.UserID)
		assert.True(t, m.FromUser)
		assert.Nil(t, m.Sentiment)
		assert.True(t, later.Equal(m.CreatedAt))
		assert.Equal(t, "Olá, como posso ajudar?", conv.LastMessage)
		assert.True(t, later.Equal(conv.LastMessageAt))
		assert.Equal(t, 1, conv.UnreadCount, "own messages leave the unread count alone")
		assert.False(t, conv.IsOpen)

		_, _, err = s.AppendMessage(ctx, auth.Session{UserID: uuid.New()}, conversation.NewMessage{
			ConversationID: c.ID, Text: "x", At: later,
		})
		assert.True(t, errx.IsCode(err, conversation.ErrNotFound))
	})

	t.Run("messages are scoped and oldest first", func(t *testing.T) {
		s := newStore(t)
		c, err := s.Create(ctx, start(jid, owner, Base))
		require.NoError(t, err)
		other, err := s.Create(ctx, start("5511888@s.whatsapp.net", owner, Base))
		require.NoError(t, err)

		session := auth.Session{UserID: owner}
		for i, text := range []string{"um", "dois", "três"} {
			_, _, err := s.AppendMessage(ctx, session, conversation.NewMessage{
				ConversationID: c.ID, Text: text, FromUser: true, At: Base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}
		_, _, err = s.AppendMessage(ctx, session, conversation.NewMessage{ConversationID: other.ID, Text: "outro", At: Base})
		require.NoError(t, err)

		page, err := s.Messages(ctx, session, c.ID, storex.PaginationOptions{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Page.Total)
		assert.True(t, page.Page.HasNext)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "um", page.Data[0].Text)
		assert.Equal(t, "dois", page.Data[1].Text)

		page, err = s.Messages(ctx, session, c.ID, storex.PaginationOptions{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "três", page.Data[0].Text)
		assert.True(t, page.Page.HasPrevious)

		_, err = s.Messages(ctx, auth.Session{UserID: uuid.New()}, c.ID, storex.PaginationOptions{})
		assert.True(t, errx.IsCode(err, conversation.ErrNotFound))
	})

	t.Run("templates are scoped and newest first", func(t *testing.T) {
		s := newStore(t)
		category := "vendas"
		for i, title := range []string{"Saudação", "Preço"} {
			_, err := s.CreateTemplate(ctx, conversation.NewTemplate{
				Owner: owner, Title: title, Content: "Olá!", Category: &category, At: Base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}
		tpl, err := s.CreateTemplate(ctx, conversation.NewTemplate{Owner: uuid.New(), Title: "Outro", Content: "x", At: Base})
		require.NoError(t, err)
		assert.Nil(t, tpl.Category)

		page, err := s.Templates(ctx, auth.Session{UserID: owner}, storex.PaginationOptions{})
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "Preço", page.Data[0].Title)
		assert.Equal(t, "Saudação", page.Data[1].Title)
		require.NotNil(t, page.Data[0].Category)
		assert.Equal(t, "vendas", *page.Data[0].Category)
	})
}

func start(remoteJID string, owner uuid.UUID, at time.Time) conversation.NewConversation {
	return conversation.NewConversation{
		RemoteJID:    remoteJID,
		Instance:     "crm-turbo",
		ContactPhone: strings.TrimSuffix(remoteJID, "@s.whatsapp.net"),
		Owner:        owner,
		At:           at,
	}
}
