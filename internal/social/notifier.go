package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/pkg/logging"
)

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
}

// EventPublisher announces stored notifications to other services.
type EventPublisher interface {
	PublishNotificationCreated(ctx context.Context, notifications ...models.Notification) error
}

// Notifier stores notifications and publishes them. Delivery is best effort: the mutation that
// caused a notification never fails because of it.
type Notifier struct {
	store     NotificationStore
	publisher EventPublisher
	logger    *zap.Logger
}

// NewNotifier creates a notifier. publisher may be nil.
func NewNotifier(store NotificationStore, publisher EventPublisher) *Notifier {
	return &Notifier{
		store:     store,
		publisher: publisher,
		logger:    logging.WithComponent("social-notifier"),
	}
}

// Dispatch stores the notifications and publishes one event per stored row. Failures are
// logged and swallowed.
func (n *Notifier) Dispatch(ctx context.Context, notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}
	logger := logging.FromContext(ctx, n.logger)

	if err := n.store.CreateBatch(ctx, notifications); err != nil {
		logger.Error("Failed to store notifications",
			zap.String("action", notifications[0].Action),
			zap.Int("count", len(notifications)),
			zap.Error(err))
		return
	}

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishNotificationCreated(ctx, notifications...); err != nil {
		logger.Warn("Failed to publish notification events",
			zap.String("action", notifications[0].Action),
			zap.Int("count", len(notifications)),
			zap.Error(err))
	}
}
