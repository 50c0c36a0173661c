package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/social"
)

// StoriesAPI provides story methods
type StoriesAPI struct {
	svc *social.Service
}

// NewStoriesAPI creates a new stories API
func NewStoriesAPI(svc *social.Service) *StoriesAPI {
	return &StoriesAPI{svc: svc}
}

// CreateStory handles circle_api.create_story
func (sa *StoriesAPI) CreateStory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return sa.svc.CreateStory(ctx.Request.Context(), actor, social.StoryInput{
		Image:    p.String("image"),
		Content:  p.String("content"),
		Audience: p.String("audience"),
	})
}

// ListArchived handles circle_api.list_archived_stories
func (sa *StoriesAPI) ListArchived(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return sa.svc.ArchivedStories(ctx.Request.Context(), actor, p.Query())
}

// ListUserStories handles circle_api.list_user_stories
func (sa *StoriesAPI) ListUserStories(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	return sa.svc.ActiveStoriesByUser(ctx.Request.Context(), actor, p.String("userId"))
}

// GetStory handles circle_api.get_story
func (sa *StoriesAPI) GetStory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("storyId"); err != nil {
		return nil, err
	}
	return sa.svc.GetStory(ctx.Request.Context(), actor, p.String("storyId"))
}

// ViewStory handles circle_api.view_story
func (sa *StoriesAPI) ViewStory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("storyId"); err != nil {
		return nil, err
	}
	first, err := sa.svc.ViewStory(ctx.Request.Context(), actor, p.String("storyId"))
	if err != nil {
		return nil, err
	}
	return gin.H{"firstView": first}, nil
}

// ReactToStory handles circle_api.react_story
func (sa *StoriesAPI) ReactToStory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("storyId", "type"); err != nil {
		return nil, err
	}
	if err := sa.svc.ReactToStory(ctx.Request.Context(), actor, p.String("storyId"), p.String("type")); err != nil {
		return nil, err
	}
	return gin.H{"message": "You reacted to the story"}, nil
}

// ListViews handles circle_api.list_story_views
func (sa *StoriesAPI) ListViews(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("storyId"); err != nil {
		return nil, err
	}
	return sa.svc.ListStoryViews(ctx.Request.Context(), actor, p.String("storyId"))
}

// DeleteStory handles circle_api.delete_story
func (sa *StoriesAPI) DeleteStory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("storyId"); err != nil {
		return nil, err
	}
	if err := sa.svc.DeleteStory(ctx.Request.Context(), actor, p.String("storyId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The story is deleted"}, nil
}

// Feed handles circle_api.get_story_feed
func (sa *StoriesAPI) Feed(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, _, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return sa.svc.StoryFeed(ctx.Request.Context(), actor)
}
