package social

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// AppealSearchFields are matched by the searchTerm parameter of ListAppeals.
var AppealSearchFields = []string{"message", "admin_response"}

// AppealDecision resolves an appeal. Approve restores the post.
type AppealDecision struct {
	Approve  bool   `json:"approve"`
	Response string `json:"response"`
}

// CreateAppeal asks the moderators to restore the actor's removed post. A post has at most one
// pending appeal.
func (s *Service) CreateAppeal(ctx context.Context, actor Actor, postID, message string) (_ *models.PostAppeal, err error) {
	ctx, end := startSpan(ctx, "CreateAppeal")
	defer end(&err)

	if err := required("postId", postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperr.Validation("message is required")
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("The post is not found !")
	}
	if post.UserID != actor.ID {
		return nil, apperr.Forbidden("You can not appeal for other user post !")
	}
	if post.Status != models.PostStatusRemoved {
		return nil, apperr.Validation("You can not appeal for active post !")
	}
	pending, err := s.store.Appeals.HasPending(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("You already have a pending appeal for this post !")
	}

	appeal := &models.PostAppeal{
		PostID:     post.ID,
		UserID:     actor.ID,
		Message:    message,
		Status:     models.AppealStatusPending,
		AppealedAt: s.now(),
	}
	if err := s.store.Appeals.Create(ctx, appeal); err != nil {
		return nil, err
	}
	return appeal, nil
}

// ListAppeals lists appeals for moderators. It accepts the full query builder parameter set.
func (s *Service) ListAppeals(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[models.PostAppeal], err error) {
	ctx, end := startSpan(ctx, "ListAppeals")
	defer end(&err)

	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can review appeals")
	}
	return list[models.PostAppeal](s, s.store.Query(ctx), params).
		Search(AppealSearchFields...).
		Filter().
		Sort("-appealed_at").
		Paginate(s.cfg.DefaultLimit).
		Fields().
		Page(ctx)
}

// ResolveAppeal approves or rejects a pending appeal. Approval restores the post in the same
// transaction. The post owner is notified either way.
func (s *Service) ResolveAppeal(ctx context.Context, actor Actor, appealID string, in AppealDecision) (_ *models.PostAppeal, err error) {
	ctx, end := startSpan(ctx, "ResolveAppeal")
	defer end(&err)

	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can review appeals")
	}
	if err := required("appealId", appealID); err != nil {
		return nil, err
	}
	appeal, err := s.store.Appeals.GetByID(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if appeal == nil {
		return nil, apperr.NotFoundf("The appeal is not found !")
	}
	if appeal.Status != models.AppealStatusPending {
		return nil, apperr.Conflict("The appeal is already %s", appeal.Status)
	}

	status := models.AppealStatusRejected
	if in.Approve {
		status = models.AppealStatusApproved
	}
	now := s.now()
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		resolved, err := tx.Appeals.Resolve(ctx, appeal.ID, status, in.Response, now)
		if err != nil {
			return err
		}
		if !resolved {
			return apperr.Conflict("The appeal was already resolved by another admin")
		}
		if !in.Approve {
			return nil
		}
		return tx.Posts.Update(ctx, appeal.PostID, map[string]interface{}{
			"status":         models.PostStatusActive,
			"removed_reason": "",
		})
	})
	if err != nil {
		return nil, err
	}
	appeal.Status, appeal.AdminResponse, appeal.ResolvedAt = status, in.Response, &now

	s.log(ctx).Info("Appeal resolved",
		zap.String("appeal_id", appeal.ID),
		zap.String("post_id", appeal.PostID),
		zap.String("status", status),
		zap.String("admin_id", actor.ID))

	message := "Your appeal was rejected"
	if in.Approve {
		message = "Your appeal was approved and your post is restored"
	}
	if in.Response != "" {
		message += ": " + in.Response
	}
	s.notifier.Dispatch(ctx, models.Notification{
		SenderID:     strPtr(actor.ID),
		ReceiverID:   appeal.UserID,
		Action:       models.ActionPostAppeal,
		TargetType:   models.NotifyTargetPost,
		TargetID:     appeal.PostID,
		Message:      message,
		IsFromSystem: true,
		URL:          "/posts/" + appeal.PostID,
		URLMethod:    "GET",
	})
	return appeal, nil
}
