package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/audience"
)

// Story is a short-lived post that expires after the configured TTL
type Story struct {
	ID        string            `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	UserID    string            `gorm:"type:varchar(36);not null;index;column:user_id" json:"userId"`
	Image     string            `gorm:"type:text;column:image" json:"image,omitempty"`
	Content   string            `gorm:"type:text;column:content" json:"content,omitempty"`
	Mentions  []string          `gorm:"type:text;serializer:json;column:mentions" json:"mentions"`
	Audience  audience.Audience `gorm:"type:varchar(16);not null;default:public;column:audience" json:"audience"`
	ViewCount int               `gorm:"not null;default:0;column:view_count" json:"viewCount"`
	ExpiresAt time.Time         `gorm:"not null;index;column:expires_at" json:"expiresAt"`
	CreatedAt time.Time         `gorm:"not null;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Story
func (Story) TableName() string {
	return "circle_stories"
}

func (s *Story) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Expired reports whether the story is past its expiry at now.
func (s *Story) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AudienceItem describes the story to the audience policy.
func (s *Story) AudienceItem() audience.Item {
	return audience.Item{OwnerID: s.UserID, Audience: s.Audience, Noun: "story"}
}

// StoryView records that a user opened a story, and optionally reacted to it
type StoryView struct {
	ID           string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	StoryID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_viewer;column:story_id" json:"storyId"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_viewer;column:user_id" json:"userId"`
	ReactionType string    `gorm:"type:varchar(16);column:reaction_type" json:"reactionType,omitempty"`
	ViewedAt     time.Time `gorm:"not null;column:viewed_at" json:"viewedAt"`
}

// TableName specifies the table name for StoryView
func (StoryView) TableName() string {
	return "circle_story_views"
}

func (v *StoryView) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
