package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/memstore"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/Abraxas-365/crmturbo/webhook"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jid = "5511999@s.whatsapp.net"

func upsertBody(fromMe bool, text string) string {
	raw, _ := json.Marshal(map[string]any{
		"event":    "messages.upsert",
		"instance": "crm-turbo",
		"data": map[string]any{
			"key":      map[string]any{"remoteJid": jid, "fromMe": fromMe, "id": "M1"},
			"pushName": "Ana",
			"message":  map[string]any{"conversation": text},
		},
	})
	return string(raw)
}

type fixture struct {
	h     *webhook.Handler
	store *memstore.Store
	owner auth.Session
}

func setup(t *testing.T, opts ...webhook.Option) fixture {
	t.Helper()
	store := memstore.New()
	svc := conversation.NewService(store)
	owner := auth.Session{UserID: uuid.New()}
	require.NoError(t, svc.BindInstance(context.Background(), owner, "crm-turbo"))
	return fixture{h: webhook.NewHandler(svc, opts...), store: store, owner: owner}
}

func (f fixture) only(t *testing.T) conversation.Conversation {
	t.Helper()
	page, err := f.store.List(context.Background(), f.owner, storex.PaginationOptions{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	return page.Data[0]
}

func TestHandle_CreatesConversation(t *testing.T) {
	f := setup(t)

	res := f.h.Handle(context.Background(), "", []byte(upsertBody(false, "Oi")))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, map[string]any{"success": true}, res.Body)

	c := f.only(t)
	assert.Equal(t, 1, c.UnreadCount)
	assert.False(t, c.IsOpen)
	assert.Equal(t, "Oi", c.LastMessage)
	assert.Equal(t, "Ana", *c.ContactName)
}

func TestHandle_OpenConversationKeepsCount(t *testing.T) {
	f := setup(t)
	f.h.Handle(context.Background(), "", []byte(upsertBody(false, "Oi")))
	c := f.only(t)
	_, err := f.store.SetOpen(context.Background(), f.owner, c.ID, true)
	require.NoError(t, err)

	f.h.Handle(context.Background(), "", []byte(upsertBody(false, "Ainda aí?")))
	c = f.only(t)
	assert.Equal(t, 0, c.UnreadCount)
	assert.Equal(t, "Ainda aí?", c.LastMessage)
}

func TestHandle_OutboundKeepsCount(t *testing.T) {
	f := setup(t)
	f.h.Handle(context.Background(), "", []byte(upsertBody(false, "Oi")))
	f.h.Handle(context.Background(), "", []byte(upsertBody(true, "Olá!")))

	c := f.only(t)
	assert.Equal(t, 1, c.UnreadCount)
	assert.Equal(t, "Olá!", c.LastMessage)
}

func TestHandle_ReplayIncrementsTwice(t *testing.T) {
	f := setup(t)
	body := []byte(upsertBody(false, "Oi"))
	f.h.Handle(context.Background(), "", body)
	f.h.Handle(context.Background(), "", body)
	assert.Equal(t, 2, f.only(t).UnreadCount)
}

func TestHandle_LongText(t *testing.T) {
	f := setup(t)
	text := strings.Repeat("x", 6000) + "\u0001"
	f.h.Handle(context.Background(), "", []byte(upsertBody(false, "\u0001"+text)))

	c := f.only(t)
	assert.Equal(t, msgx.MaxMessageRunes-1, len([]rune(c.LastMessage)))
	assert.NotContains(t, c.LastMessage, "\x01")
}

func TestHandle_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{"bad json", `{`, http.StatusBadRequest, "Invalid JSON body"},
		{"no event", `{"data":{}}`, http.StatusBadRequest, "Missing or invalid event type"},
		{"bad instance", `{"event":"messages.upsert","instance":"x y"}`, http.StatusBadRequest, "Invalid instance name format"},
		{"no message", `{"event":"messages.upsert","data":[]}`, http.StatusBadRequest, "No message data"},
		{"no jid", `{"event":"messages.upsert","data":{"key":{}}}`, http.StatusBadRequest, "No remoteJid"},
		{"bad jid", `{"event":"messages.upsert","data":{"key":{"remoteJid":"status@broadcast"}}}`, http.StatusBadRequest, "Invalid remoteJid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			res := f.h.Handle(context.Background(), "", []byte(tt.body))
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.error, res.Body["error"])
			assert.Equal(t, false, res.Body["success"])
		})
	}
}

func TestHandle_OtherEventsAreNoOps(t *testing.T) {
	f := setup(t)
	res := f.h.Handle(context.Background(), "", []byte(`{"event":"connection.update","instance":"crm-turbo","data":{"state":"open"}}`))
	assert.Equal(t, http.StatusOK, res.Status)

	page, err := f.store.List(context.Background(), f.owner, storex.PaginationOptions{})
	require.NoError(t, err)
	assert.True(t, page.Empty)
}

func TestHandle_Secret(t *testing.T) {
	f := setup(t, webhook.WithSecret("s3cret"))

	res := f.h.Handle(context.Background(), "wrong", []byte(upsertBody(false, "Oi")))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Unauthorized", res.Body["error"])

	res = f.h.Handle(context.Background(), "wrong", []byte(`{`))
	assert.Equal(t, http.StatusUnauthorized, res.Status, "secret is checked before the body")

	res = f.h.Handle(context.Background(), "", []byte(upsertBody(false, "Oi")))
	assert.Equal(t, http.StatusUnauthorized, res.Status, "a missing header is rejected too")

	page, err := f.store.List(context.Background(), f.owner, storex.PaginationOptions{})
	require.NoError(t, err)
	assert.True(t, page.Empty, "rejected events never reach the store")
	system, err := f.store.List(context.Background(), auth.Session{UserID: auth.SystemUserID}, storex.PaginationOptions{})
	require.NoError(t, err)
	assert.True(t, system.Empty)

	res = f.h.Handle(context.Background(), "s3cret", []byte(upsertBody(false, "Oi")))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, 1, f.only(t).UnreadCount)
}

type failingIngester struct {
	calls int
	code  errx.Code
}

func (f *failingIngester) Ingest(context.Context, string, *msgx.InboundMessage) (*conversation.Conversation, bool, error) {
	f.calls++
	return nil, false, storex.New(f.code)
}

func TestHandle_StorageErrorsAreAcknowledged(t *testing.T) {
	tests := map[errx.Code]string{
		storex.ErrConnectionFailed: "Store unreachable",
		storex.ErrQueryFailed:      "Conversation upsert failed",
	}
	for code, wantLog := range tests {
		t.Run(string(code), func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := logx.New()
			l.SetOutput(buf)
			l.SetColored(false)

			ing := &failingIngester{code: code}
			res := webhook.NewHandler(ing, webhook.WithLogger(l)).Handle(context.Background(), "", []byte(upsertBody(false, "Oi")))
			assert.Equal(t, http.StatusOK, res.Status)
			assert.Equal(t, true, res.Body["success"])
			assert.Equal(t, 1, ing.calls)
			assert.Contains(t, buf.String(), wantLog)
		})
	}
}
