package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Query returns a fresh query handle bound to ctx.
func (r *Repository) Query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Store groups the typed repositories over one connection or transaction.
type Store struct {
	*Repository
	Users         *UserRepository
	Blocks        *BlockRepository
	Friends       *FriendRepository
	Posts         *PostRepository
	Appeals       *AppealRepository
	Comments      *CommentRepository
	Reactions     *ReactionRepository
	Stories       *StoryRepository
	Notifications *NotificationRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	repo := NewRepository(db)
	return &Store{
		Repository:    repo,
		Users:         NewUserRepository(repo),
		Blocks:        NewBlockRepository(repo),
		Friends:       NewFriendRepository(repo),
		Posts:         NewPostRepository(repo),
		Appeals:       NewAppealRepository(repo),
		Comments:      NewCommentRepository(repo),
		Reactions:     NewReactionRepository(repo),
		Stories:       NewStoryRepository(repo),
		Notifications: NewNotificationRepository(repo),
	}
}

// WithTx runs fn inside a transaction. fn receives a store bound to the transaction and must
// not use the outer store. The transaction is rolled back when fn returns an error or panics;
// the error from fn is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(NewStore(tx)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// first loads one row into dest, returning found=false instead of gorm.ErrRecordNotFound.
func first(q *gorm.DB, dest interface{}) (bool, error) {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
