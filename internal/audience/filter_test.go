package audience_test

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/db/dbtest"
	"github.com/steemit/circlemind/internal/models"
)

// TestListFilterMatchesCanRead checks, over random data, that for every viewer and owner the
// store filter returns exactly the posts CanRead allows.
func TestListFilterMatchesCanRead(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t).DB
	rng := rand.New(rand.NewSource(42))

	users := []string{"u0", "u1", "u2", "u3", "u4"}
	statuses := []string{models.PostStatusActive, models.PostStatusRemoved}

	var posts []models.Post
	for i := 0; i < 120; i++ {
		p := models.Post{
			UserID:   users[rng.Intn(len(users))],
			Content:  fmt.Sprintf("post %d", i),
			Audience: audience.All[rng.Intn(len(audience.All))],
			Status:   statuses[rng.Intn(len(statuses))],
		}
		require.NoError(t, gdb.WithContext(ctx).Create(&p).Error)
		posts = append(posts, p)
	}

	friendships := map[string]bool{}
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			if rng.Intn(2) == 0 {
				friendships[models.PairKey(users[i], users[j])] = true
			}
		}
	}

	for _, viewer := range users {
		for _, owner := range users {
			isFriend := viewer != owner && friendships[models.PairKey(viewer, owner)]

			var got []string
			err := gdb.WithContext(ctx).Model(&models.Post{}).
				Scopes(audience.ForViewer(viewer, owner, isFriend, models.PostStatusActive).Scope()).
				Pluck("id", &got).Error
			require.NoError(t, err)

			var want []string
			v := audience.Viewer{ID: viewer, IsFriend: isFriend}
			for _, p := range posts {
				if p.UserID == owner && audience.CanRead(v, p.AudienceItem()) {
					want = append(want, p.ID)
				}
			}

			sort.Strings(got)
			sort.Strings(want)
			require.Equal(t, want, got, "viewer %s owner %s friend %v", viewer, owner, isFriend)
		}
	}
}

func TestAnyCombinesGroups(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t).DB
	now := time.Now().UTC()

	stories := []models.Story{
		{UserID: "me", Audience: audience.Private, ExpiresAt: now.Add(time.Hour)},
		{UserID: "friend", Audience: audience.Friends, ExpiresAt: now.Add(time.Hour)},
		{UserID: "friend", Audience: audience.Private, ExpiresAt: now.Add(time.Hour)},
		{UserID: "followed", Audience: audience.Public, ExpiresAt: now.Add(time.Hour)},
		{UserID: "followed", Audience: audience.Friends, ExpiresAt: now.Add(time.Hour)},
		{UserID: "friend", Audience: audience.Public, ExpiresAt: now.Add(-time.Hour)},
	}
	for i := range stories {
		require.NoError(t, gdb.Create(&stories[i]).Error)
	}

	scope := audience.Any(
		audience.ListFilter{OwnerIDs: []string{"me"}, NotExpiredAt: now},
		audience.ListFilter{OwnerIDs: []string{"friend"}, Audiences: audience.Visible(false, true), NotExpiredAt: now},
		audience.ListFilter{OwnerIDs: []string{"followed"}, Audiences: audience.Visible(false, false), NotExpiredAt: now},
	)

	var got []models.Story
	require.NoError(t, gdb.WithContext(ctx).Scopes(scope).Order("created_at").Find(&got).Error)
	ids := map[string]bool{}
	for _, s := range got {
		ids[s.ID] = true
	}
	require.Len(t, got, 3)
	require.True(t, ids[stories[0].ID])
	require.True(t, ids[stories[1].ID])
	require.True(t, ids[stories[3].ID])

	var none []models.Story
	require.NoError(t, gdb.WithContext(ctx).Scopes(audience.Any()).Find(&none).Error)
	require.Empty(t, none)
}
