package social

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// CommentInput describes a new comment. A non-empty ParentID makes it a reply.
type CommentInput struct {
	PostID   string `json:"postId"`
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

// CreateComment comments on a post or replies to a top-level comment of it.
func (s *Service) CreateComment(ctx context.Context, actor Actor, in CommentInput) (_ *CommentView, err error) {
	ctx, end := startSpan(ctx, "CreateComment")
	defer end(&err)

	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	post, err := s.readablePost(ctx, actor, in.PostID, audience.Comment)
	if err != nil {
		return nil, err
	}

	var parent *models.Comment
	if in.ParentID != "" {
		parent, err = s.store.Comments.GetByID(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PostID != post.ID {
			return nil, apperr.NotFoundf("You can't reply non existing comment!")
		}
		if parent.IsReply() {
			return nil, apperr.NestedReply()
		}
		if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, parent.AuthorID); err != nil {
			return nil, err
		}
	}

	mentions, err := s.resolveMentions(ctx, actor.ID, in.Content, post.AudienceItem())
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: actor.ID,
		Content:  in.Content,
		Mentions: mentions,
	}
	if parent != nil {
		comment.ParentID = strPtr(parent.ID)
	}

	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if parent != nil {
			return tx.Comments.AddReplies(ctx, parent.ID, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyComment(ctx, actor, post, parent, comment)

	views, err := s.commentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) notifyComment(ctx context.Context, actor Actor, post *models.Post, parent, comment *models.Comment) {
	name := s.fullName(ctx, actor.ID)
	url := "/posts/" + post.ID
	var notes []models.Notification

	if post.UserID != actor.ID {
		notes = append(notes, models.Notification{
			SenderID:   strPtr(actor.ID),
			ReceiverID: post.UserID,
			Action:     models.ActionCommented,
			TargetType: models.NotifyTargetPost,
			TargetID:   post.ID,
			Message:    name + " commented on your post",
			URL:        url,
			URLMethod:  "GET",
		})
	}
	if parent != nil && parent.AuthorID != actor.ID {
		notes = append(notes, models.Notification{
			SenderID:   strPtr(actor.ID),
			ReceiverID: parent.AuthorID,
			Action:     models.ActionReplied,
			TargetType: models.NotifyTargetReply,
			TargetID:   comment.ID,
			Message:    name + " replied to your comment",
			URL:        url,
			URLMethod:  "GET",
		})
	}
	notes = append(notes, mentionNotifications(actor.ID, comment.Mentions, models.NotifyTargetComment, comment.ID,
		name+" mentioned you in a comment", url, comment.CreatedAt)...)
	s.notifier.Dispatch(ctx, notes...)
}

// ListComments lists the top-level comments of a post the actor may read, newest first.
// Comments by users blocked with the actor are left out.
func (s *Service) ListComments(ctx context.Context, actor Actor, postID string, params query.Params) (_ *query.Page[CommentView], err error) {
	ctx, end := startSpan(ctx, "ListComments")
	defer end(&err)

	post, err := s.readablePost(ctx, actor, postID, audience.Read)
	if err != nil {
		return nil, err
	}
	q := s.store.Query(ctx).Where("post_id = ? AND parent_id IS NULL", post.ID)
	return s.commentPage(ctx, actor, q, params, "-created_at")
}

// ListReplies lists the replies of a top-level comment, oldest first.
func (s *Service) ListReplies(ctx context.Context, actor Actor, commentID string, params query.Params) (_ *query.Page[CommentView], err error) {
	ctx, end := startSpan(ctx, "ListReplies")
	defer end(&err)

	if err := required("commentId", commentID); err != nil {
		return nil, err
	}
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperr.NotFoundf("The comment is not found !")
	}
	if _, err := s.readablePost(ctx, actor, comment.PostID, audience.Read); err != nil {
		return nil, err
	}
	if comment.ReplyCount == 0 {
		return nil, apperr.Validation("This comment has no replies")
	}
	q := s.store.Query(ctx).Where("parent_id = ?", comment.ID)
	return s.commentPage(ctx, actor, q, params, "created_at")
}

func (s *Service) commentPage(ctx context.Context, actor Actor, q *gorm.DB, params query.Params, defaultSort string) (*query.Page[CommentView], error) {
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(excluded) > 0 {
		q = q.Where("author_id NOT IN ?", excluded)
	}
	page, err := list[models.Comment](s, q, pageOnly(params)).
		Sort(defaultSort).
		Paginate(s.cfg.DefaultLimit).
		Page(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.commentViews(ctx, page.Data)
	if err != nil {
		return nil, err
	}
	return &query.Page[CommentView]{Meta: page.Meta, Data: views}, nil
}

// UpdateComment replaces the content of the actor's own comment and marks it edited.
func (s *Service) UpdateComment(ctx context.Context, actor Actor, commentID, content string) (_ *CommentView, err error) {
	ctx, end := startSpan(ctx, "UpdateComment")
	defer end(&err)

	if err := required("commentId", commentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperr.NotFoundf("The comment is not found !")
	}
	if comment.AuthorID != actor.ID {
		return nil, apperr.Forbidden("You can not update other user comment !")
	}
	post, err := s.store.Posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("The post is not found !")
	}
	if post.Status == models.PostStatusRemoved {
		return nil, apperr.Forbidden("You can not add or delete comment on removed post !")
	}

	mentions, err := s.resolveMentions(ctx, actor.ID, content, post.AudienceItem())
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.Comments.Update(ctx, comment.ID, map[string]interface{}{
		"content":   content,
		"mentions":  models.JSONList(mentions),
		"is_edited": true,
		"edited_at": now,
	}); err != nil {
		return nil, err
	}
	comment.Content, comment.Mentions, comment.IsEdited, comment.EditedAt = content, mentions, true, &now

	views, err := s.commentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteComment deletes a comment. Deleting a top-level comment deletes its replies; deleting a
// reply decrements the reply count of its parent. The comment author and the post owner may
// delete.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, commentID string) (err error) {
	ctx, end := startSpan(ctx, "DeleteComment")
	defer end(&err)

	if err := required("commentId", commentID); err != nil {
		return err
	}
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperr.NotFoundf("The comment you want to delete is not found !")
	}
	post, err := s.store.Posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFoundf("The post is not found !")
	}
	if post.Status == models.PostStatusRemoved {
		return apperr.Forbidden("You can not add or delete comment on removed post !")
	}
	if comment.AuthorID != actor.ID && post.UserID != actor.ID {
		return apperr.Forbidden("You can not delete other user comment !")
	}

	return s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.Comments.Delete(ctx, comment.ID); err != nil {
			return err
		}
		removed := []string{comment.ID}
		if comment.IsReply() {
			if err := tx.Comments.AddReplies(ctx, *comment.ParentID, -1); err != nil {
				return err
			}
		} else {
			replies, err := tx.Comments.DeleteReplies(ctx, comment.ID)
			if err != nil {
				return err
			}
			removed = append(removed, replies...)
		}
		return tx.Reactions.DeleteForTargets(ctx, models.TargetComment, removed)
	})
}
