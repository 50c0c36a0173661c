package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/social"
)

// NotifyAPI provides notification methods
type NotifyAPI struct {
	svc *social.Service
}

// NewNotifyAPI creates a new notify API
func NewNotifyAPI(svc *social.Service) *NotifyAPI {
	return &NotifyAPI{svc: svc}
}

// ListNotifications handles circle_api.list_notifications
func (n *NotifyAPI) ListNotifications(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return n.svc.ListNotifications(ctx.Request.Context(), actor, p.Query())
}

// MarkRead handles circle_api.mark_notification_read
func (n *NotifyAPI) MarkRead(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("notificationId"); err != nil {
		return nil, err
	}
	if err := n.svc.MarkNotificationRead(ctx.Request.Context(), actor, p.String("notificationId")); err != nil {
		return nil, err
	}
	return gin.H{"isRead": true}, nil
}

// MarkAllRead handles circle_api.mark_all_notifications_read
func (n *NotifyAPI) MarkAllRead(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, _, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	changed, err := n.svc.MarkAllNotificationsRead(ctx.Request.Context(), actor)
	if err != nil {
		return nil, err
	}
	return gin.H{"modified": changed}, nil
}

// DeleteNotification handles circle_api.delete_notification
func (n *NotifyAPI) DeleteNotification(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("notificationId"); err != nil {
		return nil, err
	}
	if err := n.svc.DeleteNotification(ctx.Request.Context(), actor, p.String("notificationId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The notification is deleted"}, nil
}

// UnreadNotifications handles circle_api.unread_notifications
func (n *NotifyAPI) UnreadNotifications(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, _, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	count, err := n.svc.UnreadNotificationCount(ctx.Request.Context(), actor)
	if err != nil {
		return nil, err
	}
	return gin.H{"unread": count}, nil
}

// Broadcast handles circle_api.broadcast_notification
func (n *NotifyAPI) Broadcast(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("message"); err != nil {
		return nil, err
	}
	sent, err := n.svc.Broadcast(ctx.Request.Context(), actor, social.BroadcastInput{
		Message: p.String("message"),
		Alert:   p.Bool("alert"),
		URL:     p.String("url"),
	})
	if err != nil {
		return nil, err
	}
	return gin.H{"receivers": sent}, nil
}
