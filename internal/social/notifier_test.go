package social_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/social"
)

type fakeNotificationStore struct {
	stored []models.Notification
	err    error
}

func (s *fakeNotificationStore) CreateBatch(_ context.Context, notifications []models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, notifications...)
	return nil
}

type fakePublisher struct {
	published []models.Notification
	err       error
}

func (p *fakePublisher) PublishNotificationCreated(_ context.Context, notifications ...models.Notification) error {
	p.published = append(p.published, notifications...)
	return p.err
}

func TestNotifierDispatch(t *testing.T) {
	note := models.Notification{ReceiverID: "r1", Action: models.ActionCommented, TargetType: models.NotifyTargetPost, Message: "hi"}

	tests := []struct {
		name          string
		storeErr      error
		publishErr    error
		wantStored    int
		wantPublished int
	}{
		{name: "stored and published", wantStored: 1, wantPublished: 1},
		{name: "store failure skips publish", storeErr: errors.New("db down"), wantStored: 0, wantPublished: 0},
		{name: "publish failure is swallowed", publishErr: errors.New("nats down"), wantStored: 1, wantPublished: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeNotificationStore{err: tt.storeErr}
			pub := &fakePublisher{err: tt.publishErr}
			n := social.NewNotifier(store, pub)

			assert.NotPanics(t, func() { n.Dispatch(context.Background(), note) })
			assert.Len(t, store.stored, tt.wantStored)
			assert.Len(t, pub.published, tt.wantPublished)
		})
	}
}

func TestNotifierWithoutPublisher(t *testing.T) {
	store := &fakeNotificationStore{}
	n := social.NewNotifier(store, nil)

	n.Dispatch(context.Background())
	assert.Empty(t, store.stored)

	n.Dispatch(context.Background(), models.Notification{ReceiverID: "r1"}, models.Notification{ReceiverID: "r2"})
	assert.Len(t, store.stored, 2)
}
