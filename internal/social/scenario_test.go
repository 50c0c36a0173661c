package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
	"github.com/steemit/circlemind/internal/social"
)

// TestAudienceFriendshipAndBlock follows one post of A through B's changing relationship with A.
func TestAudienceFriendshipAndBlock(t *testing.T) {
	f := newFixture(t)
	a, b, mod := f.user("anna"), f.user("ben"), f.admin("mod")
	post := f.post(a, string(audience.Public))

	_, err := f.svc.GetPost(f.ctx, b, post.ID)
	require.NoError(t, err, "stranger reads a public post")

	friendsOnly := string(audience.Friends)
	_, err = f.svc.UpdatePost(f.ctx, a, post.ID, social.PostUpdate{Audience: &friendsOnly})
	require.NoError(t, err)

	_, err = f.svc.GetPost(f.ctx, b, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "stranger reads a friends post: %v", err)

	f.befriend(b, a)
	_, err = f.svc.GetPost(f.ctx, b, post.ID)
	require.NoError(t, err, "friend reads a friends post")

	_, err = f.svc.CreateComment(f.ctx, b, social.CommentInput{PostID: post.ID, Content: "nice"})
	require.NoError(t, err)
	_, err = f.svc.ToggleReaction(f.ctx, b, social.ReactionInput{TargetType: models.TargetPost, TargetID: post.ID, Type: "care"})
	require.NoError(t, err)

	_, err = f.svc.Broadcast(f.ctx, mod, social.BroadcastInput{Message: "maintenance tonight"})
	require.NoError(t, err)

	before, err := f.svc.ListNotifications(f.ctx, a, query.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, before.Meta.TotalItems, "friend request, comment, reaction and broadcast")
	unread, err := f.svc.UnreadNotificationCount(f.ctx, a)
	require.NoError(t, err)
	assert.EqualValues(t, 4, unread)

	_, err = f.svc.Block(f.ctx, a, b.ID)
	require.NoError(t, err)

	_, err = f.svc.GetPost(f.ctx, b, post.ID)
	assert.ErrorIs(t, err, apperr.ErrBlocked)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.CreateComment(f.ctx, b, social.CommentInput{PostID: post.ID, Content: "hello?"})
	assert.ErrorIs(t, err, apperr.ErrBlocked)
	_, err = f.svc.ToggleReaction(f.ctx, b, social.ReactionInput{TargetType: models.TargetPost, TargetID: post.ID, Type: "sad"})
	assert.ErrorIs(t, err, apperr.ErrBlocked)

	after, err := f.svc.ListNotifications(f.ctx, a, query.Params{})
	require.NoError(t, err)
	require.Len(t, after.Data, 1)
	assert.True(t, after.Data[0].IsFromSystem)
	assert.Nil(t, after.Data[0].Sender)
	for _, n := range after.Data {
		if n.SenderID != nil {
			assert.NotEqual(t, b.ID, *n.SenderID)
		}
	}
	unread, err = f.svc.UnreadNotificationCount(f.ctx, a)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	comments, err := f.svc.ListComments(f.ctx, a, post.ID, query.Params{})
	require.NoError(t, err)
	assert.Empty(t, comments.Data)
}

func TestNotificationOwnership(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("anna"), f.user("ben")

	_, err := f.svc.SendFriendRequest(f.ctx, b, a.ID)
	require.NoError(t, err)
	list, err := f.svc.ListNotifications(f.ctx, a, query.Params{})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID
	require.NotNil(t, list.Data[0].Sender)
	assert.Equal(t, b.ID, list.Data[0].Sender.UserID)

	err = f.svc.MarkNotificationRead(f.ctx, b, id)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	err = f.svc.DeleteNotification(f.ctx, b, id)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	err = f.svc.MarkNotificationRead(f.ctx, a, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.svc.MarkNotificationRead(f.ctx, a, id))
	unread, err := f.svc.UnreadNotificationCount(f.ctx, a)
	require.NoError(t, err)
	assert.Zero(t, unread)

	changed, err := f.svc.MarkAllNotificationsRead(f.ctx, a)
	require.NoError(t, err)
	assert.Zero(t, changed)

	require.NoError(t, f.svc.DeleteNotification(f.ctx, a, id))
	list, err = f.svc.ListNotifications(f.ctx, a, query.Params{})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	a := f.user("anna")

	_, err := f.svc.Broadcast(f.ctx, a, social.BroadcastInput{Message: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
