package eventx

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	Text string `json:"text"`
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	e := NewEvent("greeting.sent", greeting{Text: "hi"}, EventOptions{Now: func() time.Time { return at }})

	assert.NotEmpty(t, e.ID())
	assert.Equal(t, "greeting.sent", e.Type())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "crmturbo", e.Source())
	assert.Equal(t, "hi", e.Data().Text)
	assert.NotNil(t, e.Metadata())
}

func TestMemoryBus_Dispatch(t *testing.T) {
	bus := NewMemoryBus()
	var got []string

	SubscribeTyped(bus, "greeting.sent", func(_ context.Context, e TypedEvent[greeting]) error {
		got = append(got, "typed:"+e.Data().Text)
		return nil
	})
	bus.Subscribe(Wildcard, func(_ context.Context, e Event) error {
		got = append(got, "any:"+e.Type())
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), NewEvent("greeting.sent", greeting{Text: "hi"})))
	require.NoError(t, bus.Publish(context.Background(), NewEvent("other", 1)))

	assert.Equal(t, []string{"typed:hi", "any:greeting.sent", "any:other"}, got)
	assert.Equal(t, 1, bus.HandlerCount("greeting.sent"))
}

func TestMemoryBus_HandlerErrors(t *testing.T) {
	bus := NewMemoryBus()
	calls := 0
	bus.Subscribe("x", func(context.Context, Event) error { calls++; return errors.New("first") })
	bus.Subscribe("x", func(context.Context, Event) error { calls++; return nil })
	SubscribeTyped(bus, "x", func(context.Context, TypedEvent[greeting]) error { calls++; return nil })

	err := bus.Publish(context.Background(), NewEvent("x", 42))

	assert.Equal(t, 3, calls, "every handler runs")
	assert.True(t, errx.IsCode(err, ErrHandlerFailed))
	assert.True(t, errors.Is(err, ErrorRegistry.New(ErrInvalidEventType)))
}

func TestLogHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logx.New()
	l.SetOutput(buf)
	l.SetColored(false)
	l.SetLevel(logx.DebugLevel)

	require.NoError(t, LogHandler(l)(context.Background(), NewEvent("greeting.sent", greeting{Text: "hi"})))
	assert.Contains(t, buf.String(), `"type":"greeting.sent"`)
	assert.Contains(t, buf.String(), `"data":{"text":"hi"}`)

	buf.Reset()
	_, err := ToSerializable(NewEvent("bad", make(chan int)))
	assert.True(t, errx.IsCode(err, ErrSerializationFailed))
}
