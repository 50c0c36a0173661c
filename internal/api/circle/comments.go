package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/social"
)

// ContentAPI provides comment and reaction methods
type ContentAPI struct {
	svc *social.Service
}

// NewContentAPI creates a new content API
func NewContentAPI(svc *social.Service) *ContentAPI {
	return &ContentAPI{svc: svc}
}

// CreateComment handles circle_api.create_comment. A parentId makes the comment a reply.
func (ca *ContentAPI) CreateComment(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId", "content"); err != nil {
		return nil, err
	}
	return ca.svc.CreateComment(ctx.Request.Context(), actor, social.CommentInput{
		PostID:   p.String("postId"),
		Content:  p.String("content"),
		ParentID: p.String("parentId"),
	})
}

// ListComments handles circle_api.list_comments
func (ca *ContentAPI) ListComments(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId"); err != nil {
		return nil, err
	}
	return ca.svc.ListComments(ctx.Request.Context(), actor, p.String("postId"), p.Query("postId"))
}

// ListReplies handles circle_api.list_replies
func (ca *ContentAPI) ListReplies(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("commentId"); err != nil {
		return nil, err
	}
	return ca.svc.ListReplies(ctx.Request.Context(), actor, p.String("commentId"), p.Query("commentId"))
}

// UpdateComment handles circle_api.update_comment
func (ca *ContentAPI) UpdateComment(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("commentId", "content"); err != nil {
		return nil, err
	}
	return ca.svc.UpdateComment(ctx.Request.Context(), actor, p.String("commentId"), p.String("content"))
}

// DeleteComment handles circle_api.delete_comment
func (ca *ContentAPI) DeleteComment(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("commentId"); err != nil {
		return nil, err
	}
	if err := ca.svc.DeleteComment(ctx.Request.Context(), actor, p.String("commentId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The comment is deleted"}, nil
}

// ToggleReaction handles circle_api.toggle_reaction. An empty type removes the reaction.
func (ca *ContentAPI) ToggleReaction(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("targetType", "targetId"); err != nil {
		return nil, err
	}
	msg, err := ca.svc.ToggleReaction(ctx.Request.Context(), actor, social.ReactionInput{
		TargetType: p.String("targetType"),
		TargetID:   p.String("targetId"),
		Type:       p.String("type"),
	})
	if err != nil {
		return nil, err
	}
	return gin.H{"message": msg}, nil
}

// ListReactions handles circle_api.list_reactions
func (ca *ContentAPI) ListReactions(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("targetType", "targetId"); err != nil {
		return nil, err
	}
	return ca.svc.ListReactions(ctx.Request.Context(), actor, p.String("targetType"), p.String("targetId"), p.Query())
}

// ReactionSummary handles circle_api.get_reaction_summary
func (ca *ContentAPI) ReactionSummary(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("targetType", "targetId"); err != nil {
		return nil, err
	}
	return ca.svc.SummarizeReactions(ctx.Request.Context(), actor, p.String("targetType"), p.String("targetId"))
}
