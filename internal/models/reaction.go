package models

import (
	"time"

	"gorm.io/gorm"
)

// Reaction target types
const (
	TargetPost    = "post"
	TargetComment = "comment"
	TargetStory   = "story"
)

// ReactionTypes lists every accepted reaction.
var ReactionTypes = []string{"love", "haha", "sad", "care", "dog", "faltu", "dong", "shoe"}

// ValidReactionType reports whether t is one of ReactionTypes.
func ValidReactionType(t string) bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Reaction is one user's reaction to a post or comment
type Reaction struct {
	ID         string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reaction_owner_target;column:user_id" json:"userId"`
	TargetType string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_reaction_owner_target;index:idx_reaction_target;column:target_type" json:"targetType"`
	TargetID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reaction_owner_target;index:idx_reaction_target;column:target_id" json:"targetId"`
	Type       string    `gorm:"type:varchar(16);not null;column:type" json:"type"`
	CreatedAt  time.Time `gorm:"not null;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Reaction
func (Reaction) TableName() string {
	return "circle_reactions"
}

func (r *Reaction) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
