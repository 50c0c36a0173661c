package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db/dbtest"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/relation"
)

func TestReactAfterDuplicate(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	svc := New(store, relation.NewResolver(store.Blocks, store.Friends), nil, DefaultConfig())
	actor := Actor{ID: "user-1", Role: models.RoleUser}

	t.Run("winning row already removed", func(t *testing.T) {
		msg, err := svc.reactAfterDuplicate(ctx, actor, ReactionInput{TargetType: models.TargetPost, TargetID: "post-1", Type: "love"})
		assert.Empty(t, msg)
		assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
	})

	t.Run("winning row takes the requested type", func(t *testing.T) {
		require.NoError(t, store.Reactions.Create(ctx, &models.Reaction{
			UserID: actor.ID, TargetType: models.TargetPost, TargetID: "post-2", Type: "love",
		}))

		msg, err := svc.reactAfterDuplicate(ctx, actor, ReactionInput{TargetType: models.TargetPost, TargetID: "post-2", Type: "haha"})
		require.NoError(t, err)
		assert.Equal(t, "You have reacted haha to this post.", msg)

		current, err := store.Reactions.Find(ctx, actor.ID, models.TargetPost, "post-2")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, "haha", current.Type)
	})
}
