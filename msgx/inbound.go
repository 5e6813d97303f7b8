package msgx

import (
	"encoding/json"
)

// EventMessagesUpsert is the only event that changes conversations
const EventMessagesUpsert = "messages.upsert"

// WebhookEvent is the validated envelope of a gateway callback
type WebhookEvent struct {
	Event    string
	Instance string
	Data     json.RawMessage
}

type rawWebhookEvent struct {
	Event    any             `json:"event"`
	Instance any             `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// ParseWebhookEvent validates the envelope. A missing or empty instance is
// accepted and reported as "".
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var raw rawWebhookEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, Registry.NewWithCause(ErrInvalidJSON, err)
	}

	event, ok := raw.Event.(string)
	if !ok || event == "" {
		return nil, Registry.New(ErrMissingEvent)
	}

	var instance string
	switch v := raw.Instance.(type) {
	case nil:
	case string:
		if v != "" && !ValidInstanceName(v) {
			return nil, Registry.New(ErrInvalidInstance).WithDetail("instance", v)
		}
		instance = v
	default:
		return nil, Registry.New(ErrInvalidInstance)
	}

	return &WebhookEvent{Event: event, Instance: instance, Data: raw.Data}, nil
}

// InboundMessage is the part of a messages.upsert payload the CRM uses
type InboundMessage struct {
	ID        string
	RemoteJID string
	FromMe    bool
	PushName  string
	Timestamp int64
	Content   map[string]any
}

// Text is the display text of the message
func (m *InboundMessage) Text() string {
	return ExtractText(m.Content)
}

// Media decodes the message payload into its tagged form
func (m *InboundMessage) Media() Media {
	return DecodeMedia(m.Content)
}

// FirstMessage picks data.messages[0], data[0] or data itself, and checks
// that it carries a usable remoteJid
func (e *WebhookEvent) FirstMessage() (*InboundMessage, error) {
	obj := firstMessageObject(e.Data)
	if obj == nil {
		return nil, Registry.New(ErrNoMessage)
	}

	key, _ := obj["key"].(map[string]any)
	jid, _ := key["remoteJid"].(string)
	if jid == "" {
		return nil, Registry.New(ErrNoRemoteJID)
	}
	if !ValidJID(jid) {
		return nil, Registry.New(ErrInvalidRemoteJID).WithDetail("remoteJid", jid)
	}

	msg := &InboundMessage{
		RemoteJID: jid,
		FromMe:    key["fromMe"] == true,
	}
	msg.ID, _ = key["id"].(string)
	msg.PushName, _ = obj["pushName"].(string)
	msg.Content, _ = obj["message"].(map[string]any)
	if ts, ok := obj["messageTimestamp"].(float64); ok {
		msg.Timestamp = int64(ts)
	}
	return msg, nil
}

func firstMessageObject(data json.RawMessage) map[string]any {
	if len(data) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}

	switch v := decoded.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		obj, _ := v[0].(map[string]any)
		return obj
	case map[string]any:
		if list, ok := v["messages"].([]any); ok && len(list) > 0 {
			if obj, ok := list[0].(map[string]any); ok {
				return obj
			}
		}
		return v
	}
	return nil
}
