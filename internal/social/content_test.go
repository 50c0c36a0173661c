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

func TestReplyToReplyIsRejected(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	post := f.post(alice, "public")

	top, err := f.svc.CreateComment(f.ctx, bob, social.CommentInput{PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	reply, err := f.svc.CreateComment(f.ctx, alice, social.CommentInput{PostID: post.ID, Content: "thanks", ParentID: top.ID})
	require.NoError(t, err)

	_, err = f.svc.CreateComment(f.ctx, bob, social.CommentInput{PostID: post.ID, Content: "deeper", ParentID: reply.ID})
	assert.ErrorIs(t, err, apperr.ErrNestedReplyNotAllowed)

	parent, err := f.store.Comments.GetByID(f.ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, parent.ReplyCount)

	replies, err := f.svc.ListReplies(f.ctx, bob, top.ID, query.Params{})
	require.NoError(t, err)
	require.Len(t, replies.Data, 1)
	assert.Equal(t, reply.ID, replies.Data[0].ID)
}

func TestDeleteTopLevelCommentCascades(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	post := f.post(alice, "public")

	top, err := f.svc.CreateComment(f.ctx, bob, social.CommentInput{PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	reply, err := f.svc.CreateComment(f.ctx, alice, social.CommentInput{PostID: post.ID, Content: "reply", ParentID: top.ID})
	require.NoError(t, err)
	_, err = f.svc.ToggleReaction(f.ctx, alice, social.ReactionInput{TargetType: models.TargetComment, TargetID: reply.ID, Type: "love"})
	require.NoError(t, err)

	err = f.svc.DeleteComment(f.ctx, alice, top.ID)
	require.NoError(t, err, "post owner may delete comments on the post")

	gone, err := f.store.Comments.GetByID(f.ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	found, err := f.store.Reactions.Find(f.ctx, alice.ID, models.TargetComment, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteReplyDecrementsParent(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	post := f.post(alice, "public")

	top, err := f.svc.CreateComment(f.ctx, alice, social.CommentInput{PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	reply, err := f.svc.CreateComment(f.ctx, bob, social.CommentInput{PostID: post.ID, Content: "reply", ParentID: top.ID})
	require.NoError(t, err)

	err = f.svc.DeleteComment(f.ctx, f.user("carol"), reply.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, f.svc.DeleteComment(f.ctx, bob, reply.ID))
	parent, err := f.store.Comments.GetByID(f.ctx, top.ID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, 0, parent.ReplyCount)
}

func TestToggleReaction(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	post := f.post(alice, "public")
	in := social.ReactionInput{TargetType: models.TargetPost, TargetID: post.ID}

	_, err := f.svc.ToggleReaction(f.ctx, bob, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "removing a missing reaction: %v", err)

	in.Type = "love"
	msg, err := f.svc.ToggleReaction(f.ctx, bob, in)
	require.NoError(t, err)
	assert.Equal(t, "You have reacted love to this post.", msg)

	msg, err = f.svc.ToggleReaction(f.ctx, bob, in)
	require.NoError(t, err)
	assert.Equal(t, "You have already reacted love to this post.", msg)

	var count int64
	require.NoError(t, f.store.Query(f.ctx).Model(&models.Reaction{}).Where("target_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 1, f.notificationsFrom(alice.ID, bob.ID, models.ActionReacted))

	in.Type = "haha"
	_, err = f.svc.ToggleReaction(f.ctx, bob, in)
	require.NoError(t, err)
	summary, err := f.svc.SummarizeReactions(f.ctx, alice, models.TargetPost, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Total)
	assert.Equal(t, "bob", summary.LatestName)

	in.Type = ""
	msg, err = f.svc.ToggleReaction(f.ctx, bob, in)
	require.NoError(t, err)
	assert.Equal(t, "Your reaction has been removed from this post.", msg)

	existing, err := f.store.Reactions.Find(f.ctx, bob.ID, models.TargetPost, post.ID)
	require.NoError(t, err)
	assert.Nil(t, existing)

	in.Type = "angry"
	_, err = f.svc.ToggleReaction(f.ctx, bob, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTagsRequireFriendship(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")
	f.befriend(alice, bob)

	_, err := f.svc.CreatePost(f.ctx, alice, social.PostInput{Content: "hi", Tags: []string{carol.ID}})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "tagging a stranger: %v", err)

	_, err = f.svc.CreatePost(f.ctx, alice, social.PostInput{Content: "hi", Tags: []string{alice.ID}})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "self tag: %v", err)

	_, err = f.svc.CreatePost(f.ctx, alice, social.PostInput{Content: "hi", Tags: []string{bob.ID, bob.ID}})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate tag: %v", err)

	post, err := f.svc.CreatePost(f.ctx, alice, social.PostInput{Content: "hi", Tags: []string{bob.ID}})
	require.NoError(t, err)
	require.Len(t, post.TaggedUser, 1)
	assert.Equal(t, bob.ID, post.TaggedUser[0].UserID)
	assert.EqualValues(t, 1, f.notificationsFrom(bob.ID, alice.ID, models.ActionTagged))
}

func TestMentionsOnlyReachReaders(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")
	f.befriend(alice, bob)

	post, err := f.svc.CreatePost(f.ctx, alice, social.PostInput{
		Content:  "dinner with @bob and @carol",
		Audience: string(audience.Friends),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, post.Mentions)
	assert.EqualValues(t, 1, f.notificationsFrom(bob.ID, alice.ID, models.ActionMentioned))
	assert.Zero(t, f.notificationsFrom(carol.ID, alice.ID))
}

func TestFeedMatchesPerItemPolicy(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol, dave := f.user("alice"), f.user("bob"), f.user("carol"), f.user("dave")
	f.befriend(alice, bob)
	_, err := f.svc.SendFriendRequest(f.ctx, alice, carol.ID)
	require.NoError(t, err)

	var all []*social.PostView
	for _, owner := range []social.Actor{alice, bob, carol, dave} {
		for _, aud := range []string{"public", "friends", "private"} {
			all = append(all, f.post(owner, aud))
		}
	}

	feed, err := f.svc.Feed(f.ctx, alice, query.Params{query.KeyLimit: "0"})
	require.NoError(t, err)
	got := map[string]bool{}
	for _, p := range feed.Data {
		got[p.ID] = true
	}

	want := map[string]bool{}
	for _, p := range all {
		switch p.UserID {
		case alice.ID:
			want[p.ID] = true
		case bob.ID:
			want[p.ID] = p.Audience != audience.Private
		case carol.ID:
			want[p.ID] = p.Audience == audience.Public
		}
	}
	for _, p := range all {
		assert.Equal(t, want[p.ID], got[p.ID], "post of %s with audience %s", p.UserID, p.Audience)
	}
}

func TestAppealRestoresPost(t *testing.T) {
	f := newFixture(t)
	alice, bob, mod := f.user("alice"), f.user("bob"), f.admin("mod")
	post := f.post(alice, "public")

	_, err := f.svc.CreateAppeal(f.ctx, alice, post.ID, "please")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "appeal of active post: %v", err)

	_, err = f.svc.ModeratePost(f.ctx, bob, post.ID, social.ModerationInput{Status: models.PostStatusRemoved, Reason: "spam"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.ModeratePost(f.ctx, mod, post.ID, social.ModerationInput{Status: models.PostStatusRemoved, Reason: "spam"})
	require.NoError(t, err)

	_, err = f.svc.GetPost(f.ctx, bob, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.CreateAppeal(f.ctx, bob, post.ID, "please")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	appeal, err := f.svc.CreateAppeal(f.ctx, alice, post.ID, "it was not spam")
	require.NoError(t, err)
	_, err = f.svc.CreateAppeal(f.ctx, alice, post.ID, "again")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	pending, err := f.svc.ListAppeals(f.ctx, mod, query.Params{"status": models.AppealStatusPending, query.KeySearch: "spam"})
	require.NoError(t, err)
	require.Len(t, pending.Data, 1)

	resolved, err := f.svc.ResolveAppeal(f.ctx, mod, appeal.ID, social.AppealDecision{Approve: true, Response: "restored"})
	require.NoError(t, err)
	assert.Equal(t, models.AppealStatusApproved, resolved.Status)

	_, err = f.svc.GetPost(f.ctx, bob, post.ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveAppeal(f.ctx, mod, appeal.ID, social.AppealDecision{})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
