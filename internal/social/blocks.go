package social

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/models"
)

// BlockedUser is an entry of the actor's block list.
type BlockedUser struct {
	UserSummary
	BlockedAt time.Time `json:"createdAt"`
}

// Block makes actor block blockedID.
func (s *Service) Block(ctx context.Context, actor Actor, blockedID string) (_ *models.UserBlock, err error) {
	ctx, end := startSpan(ctx, "Block")
	defer end(&err)

	if err := required("blockedId", blockedID); err != nil {
		return nil, err
	}
	if blockedID == actor.ID {
		return nil, apperr.Validation("You can't block yourself")
	}
	user, err := s.store.Users.GetByID(ctx, blockedID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("The user is not found")
	}

	block := &models.UserBlock{BlockerID: actor.ID, BlockedID: blockedID}
	if err := s.store.Blocks.Create(ctx, block); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("The user is already blocked")
		}
		return nil, err
	}
	s.resolver.Invalidate(ctx, actor.ID, blockedID)

	s.log(ctx).Info("User blocked", zap.String("blocker_id", actor.ID), zap.String("blocked_id", blockedID))
	return block, nil
}

// Unblock removes the block actor placed on blockedID.
func (s *Service) Unblock(ctx context.Context, actor Actor, blockedID string) (err error) {
	ctx, end := startSpan(ctx, "Unblock")
	defer end(&err)

	if err := required("blockedId", blockedID); err != nil {
		return err
	}
	user, err := s.store.Users.GetByID(ctx, blockedID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFoundf("The user is not found")
	}

	removed, err := s.store.Blocks.Delete(ctx, actor.ID, blockedID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperr.NotFoundf("The user is not exists in your block list")
	}
	s.resolver.Invalidate(ctx, actor.ID, blockedID)
	return nil
}

// ListBlocked returns the users the actor blocked, most recent block first.
func (s *Service) ListBlocked(ctx context.Context, actor Actor) (_ []BlockedUser, err error) {
	ctx, end := startSpan(ctx, "ListBlocked")
	defer end(&err)

	blocks, err := s.store.Blocks.ListByBlocker(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]BlockedUser, 0, len(blocks))
	for _, b := range blocks {
		card, ok := cards[b.BlockedID]
		if !ok {
			continue
		}
		out = append(out, BlockedUser{UserSummary: card, BlockedAt: b.CreatedAt})
	}
	return out, nil
}
