package social_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/db/dbtest"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/relation"
	"github.com/steemit/circlemind/internal/social"
)

// fixture is a service over a fresh database with a controllable clock.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *db.Store
	svc   *social.Service
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: dbtest.Store(t),
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	resolver := relation.NewResolver(f.store.Blocks, f.store.Friends)
	f.svc = social.New(f.store, resolver, nil, social.DefaultConfig(),
		social.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) user(username string) social.Actor {
	f.t.Helper()
	u, err := f.svc.CreateUser(f.ctx, social.CreateUserInput{Username: username, FullName: username, IsVerified: true})
	require.NoError(f.t, err)
	return social.Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) admin(username string) social.Actor {
	f.t.Helper()
	u, err := f.svc.CreateUser(f.ctx, social.CreateUserInput{Username: username, FullName: username, Role: models.RoleAdmin})
	require.NoError(f.t, err)
	return social.Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) befriend(a, b social.Actor) {
	f.t.Helper()
	req, err := f.svc.SendFriendRequest(f.ctx, a, b.ID)
	require.NoError(f.t, err)
	_, err = f.svc.AcceptFriendRequest(f.ctx, b, req.ID)
	require.NoError(f.t, err)
}

func (f *fixture) post(owner social.Actor, aud string) *social.PostView {
	f.t.Helper()
	p, err := f.svc.CreatePost(f.ctx, owner, social.PostInput{Content: "hello from " + owner.ID, Audience: aud})
	require.NoError(f.t, err)
	return p
}

// notificationsFrom counts the notifications sender caused for receiver, optionally of one
// action only.
func (f *fixture) notificationsFrom(receiver, sender string, action ...string) int64 {
	f.t.Helper()
	q := f.store.Query(f.ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND sender_id = ?", receiver, sender)
	if len(action) > 0 {
		q = q.Where("action IN ?", action)
	}
	var count int64
	require.NoError(f.t, q.Count(&count).Error)
	return count
}
