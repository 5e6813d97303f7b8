package server

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/docx"
	"github.com/Abraxas-365/crmturbo/msgx"
	"github.com/Abraxas-365/crmturbo/webhook"
)

type proxyRequest struct {
	Action       string         `json:"action" validatex:"required,gateway_action"`
	InstanceName string         `json:"instanceName,omitempty" validatex:"pattern=instance"`
	Data         map[string]any `json:"data,omitempty"`
}

type webhookRequest struct {
	Event    string `json:"event" validatex:"required"`
	Instance string `json:"instance,omitempty" validatex:"pattern=instance"`
	Data     any    `json:"data,omitempty"`
}

// Catalogue documents every route the server mounts
func Catalogue() []*docx.RouterDoc {
	actions := make([]string, 0, len(msgx.Actions))
	for _, a := range msgx.Actions {
		actions = append(actions, string(a))
	}

	functions := docx.NewRouterDoc(FunctionsBase, "Functions").
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/evolution-api").
			WithSummary("Forward one action to the WhatsApp gateway").
			WithDescription("Allowed actions: " + strings.Join(actions, ", ") + ". Gateway 404 and 409 answer 200 with error INSTANCE_NOT_FOUND or INSTANCE_EXISTS.").
			WithTags("gateway").
			WithBearer().
			WithRequestDTO(proxyRequest{}).
			WithRequestExample(map[string]any{"action": "sendMessage", "instanceName": msgx.DefaultInstance, "data": map[string]any{"number": "5511999999999", "text": "Olá"}}).
			WithResponseExample(map[string]any{"key": map[string]any{"id": "3EB0..."}, "success": true})).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/evolution-webhook").
			WithSummary("Receive gateway events").
			WithDescription("Only messages.upsert changes conversations; other events are acknowledged.").
			WithTags("webhook").
			WithSharedSecret(webhook.SecretHeader).
			WithRequestDTO(webhookRequest{}).
			WithRequestExample(map[string]any{
				"event":    msgx.EventMessagesUpsert,
				"instance": msgx.DefaultInstance,
				"data": map[string]any{
					"key":      map[string]any{"remoteJid": "5511999999999" + msgx.UserJIDSuffix, "fromMe": false},
					"pushName": "Ana",
					"message":  map[string]any{"conversation": "Oi"},
				},
			}).
			WithResponseExample(map[string]any{"success": true}))

	api := docx.NewRouterDoc("/api", "Conversations").
		AddEndpoint(docx.NewEndpoint(http.MethodGet, "/conversations").
			WithSummary("List the caller's conversations, newest message first").
			WithBearer().
			WithQueryParam("page", "1-based page", "1").
			WithQueryParam("page_size", "items per page, at most 100", "25")).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/conversations").
			WithSummary("Start a conversation from a phone number").
			WithDescription("Answers 409 EXISTS when the contact already has a conversation on the instance.").
			WithBearer().
			WithRequestDTO(conversation.StartInput{}).
			WithRequestExample(map[string]any{"contact_phone": "+55 11 99999-9999", "contact_name": "Ana"})).
		AddEndpoint(docx.NewEndpoint(http.MethodGet, "/conversations/:id/messages").
			WithSummary("Message history, oldest first").
			WithBearer().
			WithPathParam("id", "conversation id", "").
			WithQueryParam("page", "1-based page", "1").
			WithQueryParam("page_size", "items per page, at most 100", "25")).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/conversations/:id/messages").
			WithSummary("Record a message sent from the panel and move the preview").
			WithBearer().
			WithPathParam("id", "conversation id", "").
			WithRequestDTO(conversation.SendInput{}).
			WithRequestExample(map[string]any{"text": "Olá, como posso ajudar?"})).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/conversations/:id/open").
			WithSummary("Focus a conversation and mark it read").
			WithBearer().
			WithPathParam("id", "conversation id", "")).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/conversations/:id/close").
			WithSummary("Unfocus a conversation").
			WithBearer().
			WithPathParam("id", "conversation id", "")).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/instances/:name").
			WithSummary("Claim a gateway instance so its new conversations belong to the caller").
			WithBearer().
			WithPathParam("name", "instance name", msgx.DefaultInstance)).
		AddEndpoint(docx.NewEndpoint(http.MethodGet, "/templates").
			WithSummary("List the caller's reply templates, newest first").
			WithBearer().
			WithQueryParam("page", "1-based page", "1").
			WithQueryParam("page_size", "items per page, at most 100", "25")).
		AddEndpoint(docx.NewEndpoint(http.MethodPost, "/templates").
			WithSummary("Save a reply template").
			WithBearer().
			WithRequestDTO(conversation.TemplateInput{}).
			WithRequestExample(map[string]any{"title": "Saudação", "content": "Olá! Como posso ajudar?", "category": "geral"}))

	ops := docx.NewRouterDoc("", "Operations").
		AddEndpoint(docx.NewEndpoint(http.MethodGet, "/health").
			WithResponseExample(map[string]any{"status": "ok"}))

	return []*docx.RouterDoc{functions, api, ops}
}
