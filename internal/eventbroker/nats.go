// Package eventbroker publishes domain events to NATS.
package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/pkg/config"
	"github.com/steemit/circlemind/pkg/logging"
)

// MsgPublisher is the part of *nats.Conn the publisher needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NotificationCreatedEvent is published once per stored notification
type NotificationCreatedEvent struct {
	ID           string    `json:"id"`
	ReceiverID   string    `json:"receiver_id"`
	SenderID     string    `json:"sender_id,omitempty"`
	Action       string    `json:"action"`
	TargetType   string    `json:"target_type"`
	TargetID     string    `json:"target_id,omitempty"`
	Message      string    `json:"message"`
	IsFromSystem bool      `json:"is_from_system"`
	CreatedAt    time.Time `json:"created_at"`
}

// NatsPublisher publishes notification events with the trace context in the message headers
type NatsPublisher struct {
	nc      MsgPublisher
	subject string
	logger  *zap.Logger
}

// NewNatsPublisher creates a publisher writing to subject
func NewNatsPublisher(nc MsgPublisher, subject string) *NatsPublisher {
	return &NatsPublisher{
		nc:      nc,
		subject: subject,
		logger:  logging.WithComponent("eventbroker"),
	}
}

// Connect dials NATS. It returns nil, nil when the broker is disabled.
func Connect(cfg *config.NATSConfig) (*nats.Conn, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("NATS event broker disabled")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("circlemind"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logging.GetLogger().Info("NATS connection established", zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}

// PublishNotificationCreated publishes one event per notification
func (p *NatsPublisher) PublishNotificationCreated(ctx context.Context, notifications ...models.Notification) error {
	for _, n := range notifications {
		event := NotificationCreatedEvent{
			ID:           n.ID,
			ReceiverID:   n.ReceiverID,
			Action:       n.Action,
			TargetType:   n.TargetType,
			TargetID:     n.TargetID,
			Message:      n.Message,
			IsFromSystem: n.IsFromSystem,
			CreatedAt:    n.CreatedAt,
		}
		if n.SenderID != nil {
			event.SenderID = *n.SenderID
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshalling error: %w", err)
		}

		msg := &nats.Msg{
			Subject: p.subject,
			Data:    data,
			Header:  nats.Header{},
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

		if err := p.nc.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish %s: %w", p.subject, err)
		}
		p.logger.Debug("Published notification event", zap.String("subject", p.subject), zap.String("notification_id", n.ID))
	}
	return nil
}
