package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/social"
)

// PostsAPI provides post, feed and moderation methods
type PostsAPI struct {
	svc *social.Service
}

// NewPostsAPI creates a new posts API
func NewPostsAPI(svc *social.Service) *PostsAPI {
	return &PostsAPI{svc: svc}
}

// CreatePost handles circle_api.create_post
func (pa *PostsAPI) CreatePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return pa.svc.CreatePost(ctx.Request.Context(), actor, social.PostInput{
		Content:  p.String("content"),
		Location: p.String("location"),
		Media:    p.Strings("media"),
		Tags:     p.Strings("tags"),
		Audience: p.String("audience"),
	})
}

// GetPost handles circle_api.get_post
func (pa *PostsAPI) GetPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId"); err != nil {
		return nil, err
	}
	return pa.svc.GetPost(ctx.Request.Context(), actor, p.String("postId"))
}

// ListMyPosts handles circle_api.list_my_posts
func (pa *PostsAPI) ListMyPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return pa.svc.ListMyPosts(ctx.Request.Context(), actor, p.Query())
}

// ListUserPosts handles circle_api.list_user_posts
func (pa *PostsAPI) ListUserPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	return pa.svc.ListUserPosts(ctx.Request.Context(), actor, p.String("userId"), p.Query("userId"))
}

// Feed handles circle_api.get_feed
func (pa *PostsAPI) Feed(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return pa.svc.Feed(ctx.Request.Context(), actor, p.Query())
}

// UpdatePost handles circle_api.update_post. Only the given fields change.
func (pa *PostsAPI) UpdatePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId"); err != nil {
		return nil, err
	}
	return pa.svc.UpdatePost(ctx.Request.Context(), actor, p.String("postId"), social.PostUpdate{
		Content:  p.OptionalString("content"),
		Location: p.OptionalString("location"),
		Audience: p.OptionalString("audience"),
	})
}

// DeletePost handles circle_api.delete_post
func (pa *PostsAPI) DeletePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId"); err != nil {
		return nil, err
	}
	if err := pa.svc.DeletePost(ctx.Request.Context(), actor, p.String("postId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The post is deleted"}, nil
}

// ModeratePost handles circle_api.moderate_post
func (pa *PostsAPI) ModeratePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId", "status"); err != nil {
		return nil, err
	}
	return pa.svc.ModeratePost(ctx.Request.Context(), actor, p.String("postId"), social.ModerationInput{
		Status: p.String("status"),
		Reason: p.String("reason"),
	})
}

// CreateAppeal handles circle_api.create_appeal
func (pa *PostsAPI) CreateAppeal(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("postId", "message"); err != nil {
		return nil, err
	}
	return pa.svc.CreateAppeal(ctx.Request.Context(), actor, p.String("postId"), p.String("message"))
}

// ListAppeals handles circle_api.list_appeals
func (pa *PostsAPI) ListAppeals(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return pa.svc.ListAppeals(ctx.Request.Context(), actor, p.Query())
}

// ResolveAppeal handles circle_api.resolve_appeal
func (pa *PostsAPI) ResolveAppeal(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("appealId"); err != nil {
		return nil, err
	}
	return pa.svc.ResolveAppeal(ctx.Request.Context(), actor, p.String("appealId"), social.AppealDecision{
		Approve:  p.Bool("approve"),
		Response: p.String("response"),
	})
}
