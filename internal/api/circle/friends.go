package circle

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/social"
)

// FriendsAPI provides friend request and friend list methods
type FriendsAPI struct {
	svc *social.Service
}

// NewFriendsAPI creates a new friends API
func NewFriendsAPI(svc *social.Service) *FriendsAPI {
	return &FriendsAPI{svc: svc}
}

// SendRequest handles circle_api.send_friend_request
func (f *FriendsAPI) SendRequest(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("receiverId"); err != nil {
		return nil, err
	}
	return f.svc.SendFriendRequest(ctx.Request.Context(), actor, p.String("receiverId"))
}

// AcceptRequest handles circle_api.accept_friend_request
func (f *FriendsAPI) AcceptRequest(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("requestId"); err != nil {
		return nil, err
	}
	return f.svc.AcceptFriendRequest(ctx.Request.Context(), actor, p.String("requestId"))
}

// RejectRequest handles circle_api.reject_friend_request
func (f *FriendsAPI) RejectRequest(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("requestId"); err != nil {
		return nil, err
	}
	return f.svc.RejectFriendRequest(ctx.Request.Context(), actor, p.String("requestId"))
}

// UndoRequest handles circle_api.undo_friend_request
func (f *FriendsAPI) UndoRequest(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("requestId"); err != nil {
		return nil, err
	}
	if err := f.svc.UndoFriendRequest(ctx.Request.Context(), actor, p.String("requestId")); err != nil {
		return nil, err
	}
	return gin.H{"message": "The friend request is cancelled"}, nil
}

// Unfriend handles circle_api.unfriend
func (f *FriendsAPI) Unfriend(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := p.Require("friendId"); err != nil {
		return nil, err
	}
	name, err := f.svc.Unfriend(ctx.Request.Context(), actor, p.String("friendId"))
	if err != nil {
		return nil, err
	}
	return gin.H{"message": "You unfriended " + name}, nil
}

// ListReceived handles circle_api.list_received_requests
func (f *FriendsAPI) ListReceived(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return f.svc.ListReceivedRequests(ctx.Request.Context(), actor, p.Query())
}

// ListSent handles circle_api.list_sent_requests
func (f *FriendsAPI) ListSent(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return f.svc.ListSentRequests(ctx.Request.Context(), actor, p.Query())
}

// ListFriends handles circle_api.list_friends
func (f *FriendsAPI) ListFriends(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, p, err := call(ctx, params)
	if err != nil {
		return nil, err
	}
	return f.svc.ListFriends(ctx.Request.Context(), actor, p.Query())
}
