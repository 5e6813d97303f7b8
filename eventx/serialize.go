package eventx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/crmturbo/logx"
)

// SerializableEvent is the wire form of an event
type SerializableEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// ToSerializable converts an event to its wire form
func ToSerializable(event Event) (*SerializableEvent, error) {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, ErrorRegistry.NewWithCause(ErrSerializationFailed, err).
			WithDetail("event_id", event.ID()).
			WithDetail("event_type", event.Type())
	}
	return &SerializableEvent{
		ID:        event.ID(),
		Type:      event.Type(),
		Timestamp: event.Timestamp(),
		Source:    event.Source(),
		Data:      data,
		Metadata:  event.Metadata(),
	}, nil
}

// LogHandler writes every event it receives to logger at debug level
func LogHandler(logger *logx.Logger) EventHandler {
	return func(_ context.Context, e Event) error {
		if !logger.IsLevelEnabled(logx.DebugLevel) {
			return nil
		}
		se, err := ToSerializable(e)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(se)
		if err != nil {
			return ErrorRegistry.NewWithCause(ErrSerializationFailed, err)
		}
		logger.Debug("event %s", string(raw))
		return nil
	}
}
