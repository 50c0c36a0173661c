package eventbroker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/steemit/circlemind/internal/models"
)

type recorder struct {
	msgs []*nats.Msg
}

func (r *recorder) PublishMsg(msg *nats.Msg) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func TestPublishNotificationCreated(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	rec := &recorder{}
	p := NewNatsPublisher(rec, "notification.created")
	sender := "alice"
	err := p.PublishNotificationCreated(ctx,
		models.Notification{ID: "n1", SenderID: &sender, ReceiverID: "bob", Action: models.ActionCommented, TargetType: models.NotifyTargetPost, Message: "hi"},
		models.Notification{ID: "n2", ReceiverID: "bob", Action: models.ActionSystemInfo, TargetType: models.NotifyTargetSystem, IsFromSystem: true},
	)
	require.NoError(t, err)
	require.Len(t, rec.msgs, 2)

	msg := rec.msgs[0]
	assert.Equal(t, "notification.created", msg.Subject)
	assert.Contains(t, propagation.HeaderCarrier(msg.Header).Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	var event NotificationCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "alice", event.SenderID)
	assert.Equal(t, "bob", event.ReceiverID)
	assert.Equal(t, models.ActionCommented, event.Action)

	require.NoError(t, json.Unmarshal(rec.msgs[1].Data, &event))
	assert.True(t, event.IsFromSystem)
}
