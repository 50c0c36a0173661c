// Package relation answers block and friendship questions about pairs and sets of users.
package relation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/pkg/logging"
)

const (
	msgYouBlocked    = "You blocked the user."
	msgBlockedYou    = "The user blocked you."
	msgNoInteraction = " You will not be able to take any action with each other."
)

// BlockStore reads directed block edges.
type BlockStore interface {
	FindBetween(ctx context.Context, a, b string) ([]models.UserBlock, error)
	ListInvolving(ctx context.Context, userID string) ([]models.UserBlock, error)
}

// FriendStore reads friend edges.
type FriendStore interface {
	FindBetween(ctx context.Context, a, b string) (*models.Friend, error)
	ListInvolving(ctx context.Context, userID string, statuses ...string) ([]models.Friend, error)
}

// SetCache stores resolved id sets between requests.
type SetCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache caches ExcludedCounterparties and FriendIDs per actor for ttl.
func WithCache(c SetCache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver answers relationship questions from the block and friend stores.
type Resolver struct {
	blocks  BlockStore
	friends FriendStore
	cache   SetCache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewResolver creates a resolver
func NewResolver(blocks BlockStore, friends FriendStore, opts ...Option) *Resolver {
	r := &Resolver{
		blocks:  blocks,
		friends: friends,
		logger:  logging.WithComponent("relation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AssertNotMutuallyBlocked fails with a Blocked error when either user blocked the other.
// The message tells a which side placed the block.
func (r *Resolver) AssertNotMutuallyBlocked(ctx context.Context, a, b string) error {
	if a == b {
		return nil
	}
	edges, err := r.blocks.FindBetween(ctx, a, b)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	for _, e := range edges {
		if e.BlockerID == a {
			return apperr.Blocked(msgYouBlocked + msgNoInteraction)
		}
	}
	return apperr.Blocked(msgBlockedYou + msgNoInteraction)
}

// ExcludedCounterparties returns everyone actor blocked or was blocked by, without duplicates.
func (r *Resolver) ExcludedCounterparties(ctx context.Context, actor string) ([]string, error) {
	return r.cached(ctx, setExcluded, actor, func() ([]string, error) {
		edges, err := r.blocks.ListInvolving(ctx, actor)
		if err != nil {
			return nil, err
		}
		ids := newIDSet(len(edges))
		for _, e := range edges {
			if e.BlockerID == actor {
				ids.add(e.BlockedID)
			} else {
				ids.add(e.BlockerID)
			}
		}
		return ids.list(), nil
	})
}

// FriendIDs returns the counterparties of actor's accepted friendships.
func (r *Resolver) FriendIDs(ctx context.Context, actor string) ([]string, error) {
	return r.cached(ctx, setFriends, actor, func() ([]string, error) {
		edges, err := r.friends.ListInvolving(ctx, actor, models.FriendStatusAccepted)
		if err != nil {
			return nil, err
		}
		ids := newIDSet(len(edges))
		for _, e := range edges {
			ids.add(e.Counterparty(actor))
		}
		return ids.list(), nil
	})
}

// FollowingIDs returns the receivers of actor's pending outgoing requests.
func (r *Resolver) FollowingIDs(ctx context.Context, actor string) ([]string, error) {
	edges, err := r.friends.ListInvolving(ctx, actor, models.FriendStatusPending)
	if err != nil {
		return nil, err
	}
	ids := newIDSet(len(edges))
	for _, e := range edges {
		if e.SenderID == actor {
			ids.add(e.ReceiverID)
		}
	}
	return ids.list(), nil
}

// FriendsAndFollowing returns FriendIDs and FollowingIDs from a single edge scan.
func (r *Resolver) FriendsAndFollowing(ctx context.Context, actor string) (friends, following []string, err error) {
	edges, err := r.friends.ListInvolving(ctx, actor, models.FriendStatusAccepted, models.FriendStatusPending)
	if err != nil {
		return nil, nil, err
	}
	fr, fo := newIDSet(len(edges)), newIDSet(len(edges))
	for _, e := range edges {
		switch {
		case e.Status == models.FriendStatusAccepted:
			fr.add(e.Counterparty(actor))
		case e.SenderID == actor:
			fo.add(e.ReceiverID)
		}
	}
	return fr.list(), fo.list(), nil
}

// IsFriend reports whether a and b have an accepted friendship.
func (r *Resolver) IsFriend(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	edge, err := r.friends.FindBetween(ctx, a, b)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.Status == models.FriendStatusAccepted, nil
}

// Viewer describes viewerID to the audience policy for content owned by ownerID.
func (r *Resolver) Viewer(ctx context.Context, viewerID, ownerID string) (audience.Viewer, error) {
	v := audience.Viewer{ID: viewerID}
	if viewerID == ownerID {
		return v, nil
	}
	isFriend, err := r.IsFriend(ctx, viewerID, ownerID)
	if err != nil {
		return v, err
	}
	v.IsFriend = isFriend
	return v, nil
}

// Invalidate drops cached sets of the given actors. Call it after every block or friend
// mutation, for both ends of the edge.
func (r *Resolver) Invalidate(ctx context.Context, actors ...string) {
	if r.cache == nil || len(actors) == 0 {
		return
	}
	for _, a := range actors {
		old := r.generation(ctx, a)
		if err := r.cache.SetJSON(ctx, generationKey(a), uuid.NewString(), 0); err != nil {
			r.logger.Warn("Failed to invalidate relation cache", zap.String("actor", a), zap.Error(err))
			continue
		}
		if err := r.cache.Delete(ctx, setKey(setExcluded, a, old), setKey(setFriends, a, old)); err != nil {
			r.logger.Debug("Failed to drop stale relation sets", zap.String("actor", a), zap.Error(err))
		}
	}
}

// generation returns the actor's current cache generation.
func (r *Resolver) generation(ctx context.Context, actor string) string {
	var gen string
	if err := r.cache.GetJSON(ctx, generationKey(actor), &gen); err != nil || gen == "" {
		return initialGeneration
	}
	return gen
}

func (r *Resolver) cached(ctx context.Context, set, actor string, load func() ([]string, error)) ([]string, error) {
	if r.cache == nil {
		return load()
	}

	key := setKey(set, actor, r.generation(ctx, actor))
	var ids []string
	err := r.cache.GetJSON(ctx, key, &ids)
	if err == nil {
		return ids, nil
	}
	if !errors.Is(err, errMiss) {
		r.logger.Debug("Relation cache read failed", zap.String("key", key), zap.Error(err))
	}

	ids, err = load()
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, key, ids, r.ttl); err != nil {
		r.logger.Debug("Relation cache write failed", zap.String("key", key), zap.Error(err))
	}
	return ids, nil
}
