package models

import (
	"time"

	"gorm.io/gorm"
)

// UserBlock is a directed block edge: BlockerID blocked BlockedID
type UserBlock struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	BlockerID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair;column:blocker_id" json:"blockerId"`
	BlockedID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair;index;column:blocked_id" json:"blockedId"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for UserBlock
func (UserBlock) TableName() string {
	return "circle_user_blocks"
}

func (b *UserBlock) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// Friend status constants
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
)

// Friend is the single friend edge between two users. SenderID made the request.
type Friend struct {
	ID          string     `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	SenderID    string     `gorm:"type:varchar(36);not null;index;column:sender_id" json:"senderId"`
	ReceiverID  string     `gorm:"type:varchar(36);not null;index;column:receiver_id" json:"receiverId"`
	PairKey     string     `gorm:"type:varchar(73);not null;uniqueIndex;column:pair_key" json:"-"`
	Status      string     `gorm:"type:varchar(16);not null;default:pending;index;column:status" json:"status"`
	RejectedAt  *time.Time `gorm:"index;column:rejected_at" json:"rejectedAt,omitempty"`
	RequestedAt time.Time  `gorm:"not null;column:requested_at" json:"requestedAt"`
	UpdatedAt   time.Time  `gorm:"not null;column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for Friend
func (Friend) TableName() string {
	return "circle_friends"
}

func (f *Friend) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	if f.PairKey == "" {
		f.PairKey = PairKey(f.SenderID, f.ReceiverID)
	}
	return nil
}

// Counterparty returns the other end of the edge as seen from userID.
func (f *Friend) Counterparty(userID string) string {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// PairKey is the order-independent key of an unordered user pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
