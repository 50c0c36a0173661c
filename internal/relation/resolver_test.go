package relation_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/cache"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/db/dbtest"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/relation"
)

// memCache is an in-process relation.SetCache.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func block(t *testing.T, store *db.Store, blocker, blocked string) {
	t.Helper()
	require.NoError(t, store.Blocks.Create(context.Background(), &models.UserBlock{BlockerID: blocker, BlockedID: blocked}))
}

func friend(t *testing.T, store *db.Store, sender, receiver, status string) {
	t.Helper()
	require.NoError(t, store.Friends.Create(context.Background(), &models.Friend{
		SenderID: sender, ReceiverID: receiver, Status: status, RequestedAt: time.Now(),
	}))
}

func TestMutualBlockIsSymmetric(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	r := relation.NewResolver(store.Blocks, store.Friends)

	require.NoError(t, r.AssertNotMutuallyBlocked(ctx, "a", "b"))
	require.NoError(t, r.AssertNotMutuallyBlocked(ctx, "a", "a"))

	block(t, store, "a", "b")

	errAB := r.AssertNotMutuallyBlocked(ctx, "a", "b")
	errBA := r.AssertNotMutuallyBlocked(ctx, "b", "a")
	require.Error(t, errAB)
	require.Error(t, errBA)
	assert.True(t, errors.Is(errAB, apperr.ErrBlocked))
	assert.True(t, errors.Is(errBA, apperr.ErrBlocked))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(errBA))

	assert.Equal(t, "You blocked the user. You will not be able to take any action with each other.", errAB.Error())
	assert.Equal(t, "The user blocked you. You will not be able to take any action with each other.", errBA.Error())

	require.NoError(t, r.AssertNotMutuallyBlocked(ctx, "a", "c"))
}

func TestExcludedCounterpartiesUnionsBothDirections(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	r := relation.NewResolver(store.Blocks, store.Friends)

	block(t, store, "a", "b")
	block(t, store, "c", "a")
	block(t, store, "b", "a")
	block(t, store, "c", "d")

	ids, err := r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	ids, err = r.ExcludedCounterparties(ctx, "e")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFriendAndFollowingSets(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	r := relation.NewResolver(store.Blocks, store.Friends)

	friend(t, store, "a", "b", models.FriendStatusAccepted)
	friend(t, store, "c", "a", models.FriendStatusAccepted)
	friend(t, store, "a", "d", models.FriendStatusPending)
	friend(t, store, "e", "a", models.FriendStatusPending)
	friend(t, store, "a", "f", models.FriendStatusRejected)

	friends, err := r.FriendIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, friends)

	following, err := r.FollowingIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, following)

	fr, fo, err := r.FriendsAndFollowing(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, friends, fr)
	assert.ElementsMatch(t, following, fo)

	for _, tt := range []struct {
		a, b string
		want bool
	}{
		{"a", "b", true},
		{"b", "a", true},
		{"c", "a", true},
		{"a", "d", false},
		{"a", "f", false},
		{"a", "a", false},
	} {
		got, err := r.IsFriend(ctx, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "IsFriend(%s, %s)", tt.a, tt.b)
	}
}

func TestCachedSetsAndInvalidation(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	mc := newMemCache()
	r := relation.NewResolver(store.Blocks, store.Friends, relation.WithCache(mc, time.Minute))

	block(t, store, "a", "b")
	ids, err := r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	// a new edge is invisible to the cached set until invalidated
	block(t, store, "a", "c")
	ids, err = r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	// the block gate never reads the cache
	assert.Error(t, r.AssertNotMutuallyBlocked(ctx, "c", "a"))

	r.Invalidate(ctx, "a", "c")
	ids, err = r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

// racingCache runs onSet once, just before the first write of a cached set, to model a
// mutation that commits between a request's load and its cache write.
type racingCache struct {
	*memCache
	onSet func()
}

func (c *racingCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.onSet != nil && strings.HasPrefix(key, "relation:excluded:") {
		hook := c.onSet
		c.onSet = nil
		hook()
	}
	return c.memCache.SetJSON(ctx, key, value, ttl)
}

func TestInvalidateWinsOverLateCacheWrite(t *testing.T) {
	ctx := context.Background()
	store := dbtest.Store(t)
	rc := &racingCache{memCache: newMemCache()}
	r := relation.NewResolver(store.Blocks, store.Friends, relation.WithCache(rc, time.Minute))

	block(t, store, "a", "b")
	rc.onSet = func() {
		block(t, store, "a", "c")
		r.Invalidate(ctx, "a", "c")
	}

	// loaded before the second block, written after its invalidation
	ids, err := r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	ids, err = r.ExcludedCounterparties(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}
