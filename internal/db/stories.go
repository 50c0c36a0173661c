package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/circlemind/internal/models"
)

// StoryRepository provides story and story view database operations
type StoryRepository struct {
	*Repository
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(repo *Repository) *StoryRepository {
	return &StoryRepository{Repository: repo}
}

// GetByID retrieves a story by ID
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &story)
	if err != nil || !found {
		return nil, err
	}
	return &story, nil
}

// Create creates a new story
func (r *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

// Delete removes a story
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Story{}).Error
}

// RecordView inserts the (story, user) view if it does not exist yet. It reports whether a row
// was inserted, in which case the story's view counter has been incremented too.
func (r *StoryRepository) RecordView(ctx context.Context, view *models.StoryView) (bool, error) {
	if view.ViewedAt.IsZero() {
		view.ViewedAt = r.db.NowFunc()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "story_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(view)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Story{}).
		Where("id = ?", view.StoryID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	return true, err
}

// SetViewReaction stores the reaction of an existing view
func (r *StoryRepository) SetViewReaction(ctx context.Context, storyID, userID, reactionType string) error {
	return r.db.WithContext(ctx).Model(&models.StoryView{}).
		Where("story_id = ? AND user_id = ?", storyID, userID).
		Update("reaction_type", reactionType).Error
}

// ListViews returns the views of a story, most recent first
func (r *StoryRepository) ListViews(ctx context.Context, storyID string) ([]models.StoryView, error) {
	var views []models.StoryView
	err := r.db.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("viewed_at DESC").
		Find(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

// DeleteViews removes every view of a story
func (r *StoryRepository) DeleteViews(ctx context.Context, storyID string) error {
	return r.db.WithContext(ctx).Where("story_id = ?", storyID).Delete(&models.StoryView{}).Error
}

// Expired returns the stories that expired between since and now, oldest first
func (r *StoryRepository) Expired(ctx context.Context, since, now time.Time) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at <= ?", since, now).
		Order("expires_at ASC").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// NotificationRepository provides notification database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &n)
	if err != nil || !found {
		return nil, err
	}
	return &n, nil
}

// CreateBatch inserts notifications in batches
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notifications, 100).Error
}

// MarkRead marks one notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

// MarkAllRead marks every unread notification of a receiver as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{}).Error
}

// CountUnread counts the unread notifications of a receiver, skipping excluded senders
func (r *NotificationRepository) CountUnread(ctx context.Context, receiverID string, excludeSenders []string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false)
	if len(excludeSenders) > 0 {
		q = q.Where("sender_id IS NULL OR sender_id NOT IN ?", excludeSenders)
	}
	err := q.Count(&count).Error
	return count, err
}
