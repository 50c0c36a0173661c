package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/db/dbtest"
	"github.com/steemit/circlemind/internal/models"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *db.Store) error {
		require.NoError(t, tx.Users.Create(ctx, &models.User{Username: "alice"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	users, err := store.Users.GetByUsernames(ctx, []string{"alice"})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	assert.Panics(t, func() {
		_ = store.WithTx(ctx, func(tx *db.Store) error {
			require.NoError(t, tx.Users.Create(ctx, &models.User{Username: "bob"}))
			panic("unexpected")
		})
	})

	users, err := store.Users.GetByUsernames(ctx, []string{"bob"})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	var userID string
	err := store.WithTx(ctx, func(tx *db.Store) error {
		u := &models.User{Username: "carol"}
		if err := tx.Users.Create(ctx, u); err != nil {
			return err
		}
		userID = u.ID
		return tx.Users.CreateProfile(ctx, &models.Profile{UserID: u.ID, FullName: "Carol"})
	})
	require.NoError(t, err)

	profile, err := store.Users.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Carol", profile.FullName)
}

func TestFriendPairIsUnique(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	require.NoError(t, store.Friends.Create(ctx, &models.Friend{SenderID: "a", ReceiverID: "b", Status: models.FriendStatusPending, RequestedAt: time.Now()}))
	err := store.Friends.Create(ctx, &models.Friend{SenderID: "b", ReceiverID: "a", Status: models.FriendStatusPending, RequestedAt: time.Now()})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	edge, err := store.Friends.FindBetween(ctx, "b", "a")
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, "a", edge.SenderID)
}

func TestDeleteRejectedBefore(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	now := time.Now().UTC()
	old := now.Add(-8 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	require.NoError(t, store.Friends.Create(ctx, &models.Friend{SenderID: "a", ReceiverID: "b", Status: models.FriendStatusRejected, RejectedAt: &old, RequestedAt: old}))
	require.NoError(t, store.Friends.Create(ctx, &models.Friend{SenderID: "a", ReceiverID: "c", Status: models.FriendStatusRejected, RejectedAt: &recent, RequestedAt: recent}))
	require.NoError(t, store.Friends.Create(ctx, &models.Friend{SenderID: "a", ReceiverID: "d", Status: models.FriendStatusPending, RequestedAt: old}))

	n, err := store.Friends.DeleteRejectedBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	edges, err := store.Friends.ListInvolving(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestRecordViewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	story := &models.Story{UserID: "owner", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Stories.Create(ctx, story))

	for i := 0; i < 3; i++ {
		inserted, err := store.Stories.RecordView(ctx, &models.StoryView{StoryID: story.ID, UserID: "viewer"})
		require.NoError(t, err)
		assert.Equal(t, i == 0, inserted)
	}

	got, err := store.Stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
}

func TestCommentDeleteReplies(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	parent := &models.Comment{PostID: "p", AuthorID: "a", Content: "top"}
	require.NoError(t, store.Comments.Create(ctx, parent))
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Comments.Create(ctx, &models.Comment{PostID: "p", AuthorID: "b", Content: "reply", ParentID: &parent.ID}))
		require.NoError(t, store.Comments.AddReplies(ctx, parent.ID, 1))
	}

	got, err := store.Comments.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReplyCount)

	ids, err := store.Comments.DeleteReplies(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestAppealResolvesOnce(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)

	appeal := &models.PostAppeal{PostID: "post-1", UserID: "user-1", Message: "not spam", Status: models.AppealStatusPending}
	require.NoError(t, store.Appeals.Create(ctx, appeal))

	now := time.Now().UTC()
	ok, err := store.Appeals.Resolve(ctx, appeal.ID, models.AppealStatusApproved, "restored", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second reviewer acting on the same pending snapshot loses
	ok, err = store.Appeals.Resolve(ctx, appeal.ID, models.AppealStatusRejected, "spam", now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Appeals.GetByID(ctx, appeal.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.AppealStatusApproved, got.Status)
	assert.Equal(t, "restored", got.AdminResponse)
}
