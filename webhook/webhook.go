// Package webhook turns gateway callbacks into conversation updates.
package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/Abraxas-365/crmturbo/msgx/providers/msgxevolution"
	"github.com/Abraxas-365/crmturbo/storex"
)

// SecretHeader is where the gateway puts the shared secret
const SecretHeader = msgxevolution.WebhookSecretHeader

// Result is the transport status and JSON body of one callback
type Result struct {
	Status int
	Body   map[string]any
}

// Ingester folds one message into a conversation
type Ingester interface {
	Ingest(ctx context.Context, instance string, msg *msgx.InboundMessage) (*conversation.Conversation, bool, error)
}

type Handler struct {
	ingester Ingester
	secret   string
	logger   *logx.Logger
}

type Option func(*Handler)

// WithSecret requires callers to present secret in SecretHeader.
// An empty secret disables the check.
func WithSecret(secret string) Option {
	return func(h *Handler) { h.secret = secret }
}

func WithLogger(l *logx.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func NewHandler(ingester Ingester, opts ...Option) *Handler {
	h := &Handler{ingester: ingester, logger: logx.GetLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle acknowledges every well-formed event with 200. Storage failures
// are logged and still acknowledged so the gateway does not retry.
func (h *Handler) Handle(ctx context.Context, secretHeader string, body []byte) Result {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(secretHeader), []byte(h.secret)) != 1 {
		h.logger.Warn("Webhook rejected: bad secret")
		return Result{Status: http.StatusUnauthorized, Body: map[string]any{"error": "Unauthorized", "success": false}}
	}

	event, err := msgx.ParseWebhookEvent(body)
	if err != nil {
		return h.reject(err)
	}

	log := h.logger.With(logx.Fields{"event": event.Event, "instance": event.Instance})
	if event.Event != msgx.EventMessagesUpsert {
		log.Debug("Webhook event ignored")
		return ok()
	}

	msg, err := event.FirstMessage()
	if err != nil {
		return h.reject(err)
	}

	if _, _, err := h.ingester.Ingest(ctx, event.Instance, msg); err != nil {
		if storex.IsConnectionFailed(err) {
			log.Error("Store unreachable, message from %s dropped: %s", msg.RemoteJID, errx.Print(err))
		} else {
			log.Error("Conversation upsert failed for %s: %s", msg.RemoteJID, errx.Print(err))
		}
	}
	return ok()
}

func (h *Handler) reject(err error) Result {
	h.logger.Warn("Webhook rejected: %s", errx.Print(err))
	return Result{Status: http.StatusBadRequest, Body: errx.Envelope(err)}
}

func ok() Result {
	return Result{Status: http.StatusOK, Body: map[string]any{"success": true}}
}
