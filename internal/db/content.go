package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &post)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// Update applies fields to a post and bumps its version
func (r *PostRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a post
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error
}

// AppealRepository provides post appeal database operations
type AppealRepository struct {
	*Repository
}

// NewAppealRepository creates a new appeal repository
func NewAppealRepository(repo *Repository) *AppealRepository {
	return &AppealRepository{Repository: repo}
}

// GetByID retrieves an appeal by ID
func (r *AppealRepository) GetByID(ctx context.Context, id string) (*models.PostAppeal, error) {
	var appeal models.PostAppeal
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &appeal)
	if err != nil || !found {
		return nil, err
	}
	return &appeal, nil
}

// HasPending reports whether the post already has an unresolved appeal
func (r *AppealRepository) HasPending(ctx context.Context, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostAppeal{}).
		Where("post_id = ? AND status = ?", postID, models.AppealStatusPending).
		Count(&count).Error
	return count > 0, err
}

// Create creates a new appeal
func (r *AppealRepository) Create(ctx context.Context, appeal *models.PostAppeal) error {
	return r.db.WithContext(ctx).Create(appeal).Error
}

// Resolve moves a pending appeal to status. It reports false when the appeal is no longer
// pending, so only one reviewer can resolve it.
func (r *AppealRepository) Resolve(ctx context.Context, id, status, response string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PostAppeal{}).
		Where("id = ? AND status = ?", id, models.AppealStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"admin_response": response,
			"resolved_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CommentRepository provides comment database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &comment)
	if err != nil || !found {
		return nil, err
	}
	return &comment, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// Update applies fields to a comment
func (r *CommentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(fields).Error
}

// AddReplies atomically adjusts the reply counter of a comment
func (r *CommentRepository) AddReplies(ctx context.Context, id string, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", gorm.Expr("reply_count + ?", delta)).Error
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}).Error
}

// DeleteReplies removes the direct replies of a comment and returns their IDs
func (r *CommentRepository) DeleteReplies(ctx context.Context, parentID string) ([]string, error) {
	return r.deleteWhere(ctx, r.db.WithContext(ctx).Where("parent_id = ?", parentID))
}

// DeleteByPost removes every comment of a post and returns their IDs
func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) ([]string, error) {
	return r.deleteWhere(ctx, r.db.WithContext(ctx).Where("post_id = ?", postID))
}

func (r *CommentRepository) deleteWhere(ctx context.Context, q *gorm.DB) ([]string, error) {
	var ids []string
	if err := q.Session(&gorm.Session{}).Model(&models.Comment{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ReactionCount is the number of reactions of one type
type ReactionCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// ReactionRepository provides reaction database operations
type ReactionRepository struct {
	*Repository
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(repo *Repository) *ReactionRepository {
	return &ReactionRepository{Repository: repo}
}

// Find retrieves the reaction of a user on a target
func (r *ReactionRepository) Find(ctx context.Context, userID, targetType, targetID string) (*models.Reaction, error) {
	var reaction models.Reaction
	q := r.db.WithContext(ctx).Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID)
	found, err := first(q, &reaction)
	if err != nil || !found {
		return nil, err
	}
	return &reaction, nil
}

// Create creates a new reaction
func (r *ReactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

// SetType changes the type of an existing reaction
func (r *ReactionRepository) SetType(ctx context.Context, id, reactionType string) error {
	return r.db.WithContext(ctx).Model(&models.Reaction{}).Where("id = ?", id).Update("type", reactionType).Error
}

// Delete removes a reaction
func (r *ReactionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reaction{}).Error
}

// DeleteForTargets removes every reaction on the given targets
func (r *ReactionRepository) DeleteForTargets(ctx context.Context, targetType string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, targetIDs).
		Delete(&models.Reaction{}).Error
}

// CountByType groups the reactions of a target by type, skipping excluded users
func (r *ReactionRepository) CountByType(ctx context.Context, targetType, targetID string, excludeUsers []string) ([]ReactionCount, error) {
	var counts []ReactionCount
	q := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("target_type = ? AND target_id = ?", targetType, targetID)
	if len(excludeUsers) > 0 {
		q = q.Where("user_id NOT IN ?", excludeUsers)
	}
	if err := q.Group("type").Order("count DESC").Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// Latest retrieves the most recent reaction on a target, skipping excluded users
func (r *ReactionRepository) Latest(ctx context.Context, targetType, targetID string, excludeUsers []string) (*models.Reaction, error) {
	var reaction models.Reaction
	q := r.db.WithContext(ctx).Where("target_type = ? AND target_id = ?", targetType, targetID)
	if len(excludeUsers) > 0 {
		q = q.Where("user_id NOT IN ?", excludeUsers)
	}
	found, err := first(q.Order("created_at DESC"), &reaction)
	if err != nil || !found {
		return nil, err
	}
	return &reaction, nil
}
