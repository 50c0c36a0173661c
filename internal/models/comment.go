package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post, or a reply when ParentID is set
type Comment struct {
	ID         string     `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	PostID     string     `gorm:"type:varchar(36);not null;index;column:post_id" json:"postId"`
	AuthorID   string     `gorm:"type:varchar(36);not null;index;column:author_id" json:"authorId"`
	Content    string     `gorm:"type:text;not null;column:content" json:"content"`
	ParentID   *string    `gorm:"type:varchar(36);index;column:parent_id" json:"parentId"`
	Mentions   []string   `gorm:"type:text;serializer:json;column:mentions" json:"mentions"`
	ReplyCount int        `gorm:"not null;default:0;column:reply_count" json:"replyCount"`
	IsEdited   bool       `gorm:"not null;default:false;column:is_edited" json:"isEdited"`
	EditedAt   *time.Time `gorm:"column:edited_at" json:"editedAt,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "circle_comments"
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}
