package social

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// NotificationView is a notification with its sender, if any.
type NotificationView struct {
	models.Notification
	Sender *UserSummary `json:"sender,omitempty"`
}

// BroadcastInput is a system notification sent to every active user.
type BroadcastInput struct {
	Message string `json:"message"`
	Alert   bool   `json:"alert"`
	URL     string `json:"url"`
}

// ListNotifications lists the actor's notifications, newest first. Notifications sent by users
// blocked with the actor are left out; system notifications are always kept.
func (s *Service) ListNotifications(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[NotificationView], err error) {
	ctx, end := startSpan(ctx, "ListNotifications")
	defer end(&err)

	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	q := s.store.Query(ctx).Where("receiver_id = ?", actor.ID)
	if len(excluded) > 0 {
		q = q.Where("sender_id IS NULL OR sender_id NOT IN ?", excluded)
	}

	filters := params.Without("receiverId", "receiver_id", "senderId", "sender_id")
	page, err := list[models.Notification](s, q, filters).
		Filter().
		Sort(s.cfg.DefaultSort).
		Paginate(s.cfg.DefaultLimit).
		Page(ctx)
	if err != nil {
		return nil, err
	}

	var senders []string
	for _, n := range page.Data {
		if n.SenderID != nil {
			senders = append(senders, *n.SenderID)
		}
	}
	cards, err := s.summaries(ctx, senders)
	if err != nil {
		return nil, err
	}
	out := &query.Page[NotificationView]{Meta: page.Meta, Data: make([]NotificationView, len(page.Data))}
	for i, n := range page.Data {
		out.Data[i] = NotificationView{Notification: n}
		if n.SenderID != nil {
			card := cardOf(cards, *n.SenderID)
			out.Data[i].Sender = &card
		}
	}
	return out, nil
}

// ownNotification loads a notification addressed to the actor. verb completes the Forbidden
// message.
func (s *Service) ownNotification(ctx context.Context, actor Actor, id, verb string) (*models.Notification, error) {
	if err := required("notificationId", id); err != nil {
		return nil, err
	}
	n, err := s.store.Notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFoundf("The notification is not found!")
	}
	if n.ReceiverID != actor.ID {
		return nil, apperr.Forbidden("You are not authorized to %s this notification.", verb)
	}
	return n, nil
}

// MarkNotificationRead marks one of the actor's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id string) (err error) {
	ctx, end := startSpan(ctx, "MarkNotificationRead")
	defer end(&err)

	n, err := s.ownNotification(ctx, actor, id, "mark as read")
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.store.Notifications.MarkRead(ctx, n.ID)
}

// MarkAllNotificationsRead marks every unread notification of the actor and returns how many
// changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) (_ int64, err error) {
	ctx, end := startSpan(ctx, "MarkAllNotificationsRead")
	defer end(&err)

	return s.store.Notifications.MarkAllRead(ctx, actor.ID)
}

// DeleteNotification deletes one of the actor's notifications.
func (s *Service) DeleteNotification(ctx context.Context, actor Actor, id string) (err error) {
	ctx, end := startSpan(ctx, "DeleteNotification")
	defer end(&err)

	n, err := s.ownNotification(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	return s.store.Notifications.Delete(ctx, n.ID)
}

// UnreadNotificationCount counts the actor's unread notifications with the same sender
// exclusion as ListNotifications.
func (s *Service) UnreadNotificationCount(ctx context.Context, actor Actor) (_ int64, err error) {
	ctx, end := startSpan(ctx, "UnreadNotificationCount")
	defer end(&err)

	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	return s.store.Notifications.CountUnread(ctx, actor.ID, excluded)
}

// Broadcast sends a system notification to every active user. Only admins may broadcast.
func (s *Service) Broadcast(ctx context.Context, actor Actor, in BroadcastInput) (_ int, err error) {
	ctx, end := startSpan(ctx, "Broadcast")
	defer end(&err)

	if !actor.IsAdmin() {
		return 0, apperr.Forbidden("Only admins can send system notifications")
	}
	if strings.TrimSpace(in.Message) == "" {
		return 0, apperr.Validation("message is required")
	}
	receivers, err := s.store.Users.ActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	action := models.ActionSystemInfo
	if in.Alert {
		action = models.ActionSystemAlert
	}
	now := s.now()
	notes := make([]models.Notification, 0, len(receivers))
	for _, id := range receivers {
		notes = append(notes, models.Notification{
			ReceiverID:   id,
			Action:       action,
			TargetType:   models.NotifyTargetSystem,
			Message:      in.Message,
			IsFromSystem: true,
			URL:          in.URL,
			CreatedAt:    now,
		})
	}
	s.notifier.Dispatch(ctx, notes...)

	s.log(ctx).Info("Broadcast system notification",
		zap.String("admin", actor.ID),
		zap.String("action", action),
		zap.Int("receivers", len(notes)))
	return len(notes), nil
}
