package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification action constants
const (
	ActionReacted               = "reacted"
	ActionCommented             = "commented"
	ActionStoryExpired          = "story_expired"
	ActionReplied               = "replied"
	ActionMentioned             = "mentioned"
	ActionFriendRequest         = "friend_request"
	ActionFriendRequestAccepted = "friend_request_accepted"
	ActionMessage               = "message"
	ActionTagged                = "tagged"
	ActionPostRemoved           = "post_removed"
	ActionPostAppeal            = "post_appeal"
	ActionSystemAlert           = "system_alert"
	ActionSystemInfo            = "system_info"
)

// Notification target type constants
const (
	NotifyTargetPost     = "post"
	NotifyTargetStory    = "story"
	NotifyTargetComment  = "comment"
	NotifyTargetReply    = "reply"
	NotifyTargetMessage  = "message"
	NotifyTargetFriend   = "friend"
	NotifyTargetUser     = "user"
	NotifyTargetSystem   = "system"
	NotifyTargetSecurity = "security"
)

// Notification represents a notification delivered to ReceiverID
type Notification struct {
	ID           string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	SenderID     *string   `gorm:"type:varchar(36);index;column:sender_id" json:"senderId"`
	ReceiverID   string    `gorm:"type:varchar(36);not null;index;column:receiver_id" json:"receiverId"`
	Action       string    `gorm:"type:varchar(32);not null;column:action" json:"action"`
	TargetType   string    `gorm:"type:varchar(16);not null;column:target_type" json:"targetType"`
	TargetID     string    `gorm:"type:varchar(36);column:target_id" json:"targetId,omitempty"`
	Message      string    `gorm:"type:text;not null;column:message" json:"message"`
	IsFromSystem bool      `gorm:"not null;default:false;column:is_from_system" json:"isFromSystem"`
	IsRead       bool      `gorm:"not null;default:false;index;column:is_read" json:"isRead"`
	URL          string    `gorm:"type:text;column:url" json:"url,omitempty"`
	URLMethod    string    `gorm:"type:varchar(8);column:url_method" json:"urlMethod,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "circle_notifications"
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
