package db

import (
	"context"
	"time"

	"github.com/steemit/circlemind/internal/models"
)

// BlockRepository provides block edge database operations
type BlockRepository struct {
	*Repository
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(repo *Repository) *BlockRepository {
	return &BlockRepository{Repository: repo}
}

// FindBetween returns the block edges between a and b in either direction, using one query.
func (r *BlockRepository) FindBetween(ctx context.Context, a, b string) ([]models.UserBlock, error) {
	var blocks []models.UserBlock
	err := r.db.WithContext(ctx).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Limit(2).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListInvolving returns every block edge where userID is the blocker or the blocked user
func (r *BlockRepository) ListInvolving(ctx context.Context, userID string) ([]models.UserBlock, error) {
	var blocks []models.UserBlock
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListByBlocker returns the edges placed by blockerID, newest first
func (r *BlockRepository) ListByBlocker(ctx context.Context, blockerID string) ([]models.UserBlock, error) {
	var blocks []models.UserBlock
	err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Order("created_at DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Create creates a new block edge
func (r *BlockRepository) Create(ctx context.Context, block *models.UserBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

// Delete removes the edge blockerID -> blockedID and reports how many rows were removed
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{})
	return res.RowsAffected, res.Error
}

// FriendRepository provides friend edge database operations
type FriendRepository struct {
	*Repository
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(repo *Repository) *FriendRepository {
	return &FriendRepository{Repository: repo}
}

// FindBetween returns the edge of the unordered pair {a, b}, if any
func (r *FriendRepository) FindBetween(ctx context.Context, a, b string) (*models.Friend, error) {
	var friend models.Friend
	found, err := first(r.db.WithContext(ctx).Where("pair_key = ?", models.PairKey(a, b)), &friend)
	if err != nil || !found {
		return nil, err
	}
	return &friend, nil
}

// GetByID retrieves an edge by ID
func (r *FriendRepository) GetByID(ctx context.Context, id string) (*models.Friend, error) {
	var friend models.Friend
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &friend)
	if err != nil || !found {
		return nil, err
	}
	return &friend, nil
}

// ListInvolving returns the edges touching userID, optionally restricted to statuses
func (r *FriendRepository) ListInvolving(ctx context.Context, userID string, statuses ...string) ([]models.Friend, error) {
	var friends []models.Friend
	q := r.db.WithContext(ctx).Where("sender_id = ? OR receiver_id = ?", userID, userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// Create creates a new edge. A second edge for the same pair fails with gorm.ErrDuplicatedKey.
func (r *FriendRepository) Create(ctx context.Context, friend *models.Friend) error {
	return r.db.WithContext(ctx).Create(friend).Error
}

// Update applies fields to the edge with the given ID
func (r *FriendRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Friend{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes an edge
func (r *FriendRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Friend{}).Error
}

// DeleteRejectedBefore removes rejected edges whose rejection is older than cutoff
func (r *FriendRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND rejected_at < ?", models.FriendStatusRejected, cutoff).
		Delete(&models.Friend{})
	return res.RowsAffected, res.Error
}
