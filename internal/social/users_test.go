package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/query"
	"github.com/steemit/circlemind/internal/social"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	f.user("alice")

	tests := []struct {
		name string
		in   social.CreateUserInput
		kind apperr.Kind
	}{
		{name: "duplicate username", in: social.CreateUserInput{Username: " Alice "}, kind: apperr.KindConflict},
		{name: "missing username", in: social.CreateUserInput{FullName: "Nobody"}, kind: apperr.KindValidation},
		{name: "unknown role", in: social.CreateUserInput{Username: "eve", Role: "owner"}, kind: apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateUser(f.ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")

	profile, err := f.svc.GetProfile(f.ctx, alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	assert.False(t, profile.IsFriend)

	f.befriend(alice, bob)
	profile, err = f.svc.GetProfile(f.ctx, alice, bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFriend)

	_, err = f.svc.Block(f.ctx, bob, alice.ID)
	require.NoError(t, err)
	_, err = f.svc.GetProfile(f.ctx, alice, bob.ID)
	assert.ErrorIs(t, err, apperr.ErrBlocked)

	_, err = f.svc.GetProfile(f.ctx, alice, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSuspendUser(t *testing.T) {
	f := newFixture(t)
	root, alice, bob := f.admin("root"), f.user("alice"), f.user("bob")

	assert.True(t, apperr.Is(f.svc.SuspendUser(f.ctx, alice, bob.ID), apperr.KindForbidden))
	assert.True(t, apperr.Is(f.svc.SuspendUser(f.ctx, root, root.ID), apperr.KindForbidden), "admins cannot be suspended")

	require.NoError(t, f.svc.SuspendUser(f.ctx, root, bob.ID))
	assert.True(t, apperr.Is(f.svc.SuspendUser(f.ctx, root, bob.ID), apperr.KindValidation))

	_, err := f.svc.ListUserPosts(f.ctx, alice, bob.ID, query.Params{})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "listing a suspended user's posts: %v", err)

	require.NoError(t, f.svc.UnsuspendUser(f.ctx, root, bob.ID))
	_, err = f.svc.ListUserPosts(f.ctx, alice, bob.ID, query.Params{})
	assert.NoError(t, err)
}
