package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/audience"
)

// Post status constants
const (
	PostStatusActive  = "active"
	PostStatusRemoved = "removed"
)

// Post represents a post
type Post struct {
	ID            string            `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	UserID        string            `gorm:"type:varchar(36);not null;index;column:user_id" json:"userId"`
	Content       string            `gorm:"type:text;column:content" json:"content"`
	Location      string            `gorm:"type:varchar(255);column:location" json:"location,omitempty"`
	Media         []string          `gorm:"type:text;serializer:json;column:media" json:"media"`
	Tags          []string          `gorm:"type:text;serializer:json;column:tags" json:"tags"`
	Mentions      []string          `gorm:"type:text;serializer:json;column:mentions" json:"mentions"`
	Audience      audience.Audience `gorm:"type:varchar(16);not null;default:public;index;column:audience" json:"audience"`
	Status        string            `gorm:"type:varchar(16);not null;default:active;index;column:status" json:"status"`
	RemovedReason string            `gorm:"type:text;column:removed_reason" json:"removedReason,omitempty"`
	Version       int               `gorm:"not null;default:0;column:version" json:"version,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;index;column:created_at" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"not null;column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "circle_posts"
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// AudienceItem describes the post to the audience policy.
func (p *Post) AudienceItem() audience.Item {
	return audience.Item{OwnerID: p.UserID, Audience: p.Audience, Removed: p.Status == PostStatusRemoved, Noun: "post"}
}

// Appeal status constants
const (
	AppealStatusPending  = "pending"
	AppealStatusApproved = "approved"
	AppealStatusRejected = "rejected"
)

// PostAppeal is an owner's request to restore a removed post
type PostAppeal struct {
	ID            string     `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	PostID        string     `gorm:"type:varchar(36);not null;index;column:post_id" json:"postId"`
	UserID        string     `gorm:"type:varchar(36);not null;index;column:user_id" json:"userId"`
	Message       string     `gorm:"type:text;not null;column:message" json:"message"`
	Status        string     `gorm:"type:varchar(16);not null;default:pending;index;column:status" json:"status"`
	AdminResponse string     `gorm:"type:text;column:admin_response" json:"adminResponse,omitempty"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at" json:"resolvedAt,omitempty"`
	AppealedAt    time.Time  `gorm:"not null;autoCreateTime;column:appealed_at" json:"appealedAt"`
}

// TableName specifies the table name for PostAppeal
func (PostAppeal) TableName() string {
	return "circle_post_appeals"
}

func (a *PostAppeal) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
