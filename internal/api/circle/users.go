// Package circle implements the circle_api JSON-RPC methods on top of the social services.
package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/api/request"
	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/social"
)

// call resolves the actor and decodes the params every authenticated method starts with.
func call(ctx *gin.Context, params json.RawMessage) (social.Actor, request.Params, error) {
	actor, err := request.Actor(ctx)
	if err != nil {
		return social.Actor{}, nil, err
	}
	p, err := request.Decode(params)
	if err != nil {
		return social.Actor{}, nil, err
	}
	return actor, p, nil
}

// UsersAPI provides account, profile and block methods
type UsersAPI struct {
	svc *social.Service
}

// NewUsersAPI creates a new users API
func NewUsersAPI(svc *social.Service) *UsersAPI {
	return &UsersAPI{svc: svc}
}

// CreateUser handles circle_api.create_user. Accounts are provisioned by admins.
func (u *UsersAPI) CreateUser(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can create users")
	}
	if err := p.Require("username"); err != nil {
		return nil, err
	}
	return u.svc.CreateUser(ctx.Request.Context(), social.CreateUserInput{
		Username:     p.String("username"),
		FullName:     p.String("fullName"),
		ProfilePhoto: p.String("profilePhoto"),
		Bio:          p.String("bio"),
		Role:         p.String("role"),
		IsVerified:   p.Bool("isVerified"),
	})
}

// GetProfile handles circle_api.get_profile
func (u *UsersAPI) GetProfile(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	userID := p.String("userId")
	if userID == "" {
		userID = actor.ID
	}
	return u.svc.GetProfile(ctx.Request.Context(), actor, userID)
}

// SuspendUser handles circle_api.suspend_user
func (u *UsersAPI) SuspendUser(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	if err := u.svc.SuspendUser(ctx.Request.Context(), actor, p.String("userId")); err != nil {
		return nil, err
	}
	return gin.H{"suspended": true}, nil
}

// UnsuspendUser handles circle_api.unsuspend_user
func (u *UsersAPI) UnsuspendUser(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	if err := u.svc.UnsuspendUser(ctx.Request.Context(), actor, p.String("userId")); err != nil {
		return nil, err
	}
	return gin.H{"suspended": false}, nil
}

// BlockUser handles circle_api.block_user
func (u *UsersAPI) BlockUser(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	return u.svc.Block(ctx.Request.Context(), actor, p.String("userId"))
}

// UnblockUser handles circle_api.unblock_user
func (u *UsersAPI) UnblockUser(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("userId"); err != nil {
		return nil, err
	}
	if err := u.svc.Unblock(ctx.Request.Context(), actor, p.String("userId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The user is unblocked"}, nil
}

// ListBlocked handles circle_api.list_blocked_users
func (u *UsersAPI) ListBlocked(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, _, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return u.svc.ListBlocked(ctx.Request.Context(), actor)
}
