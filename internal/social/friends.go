package social

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// FriendRequest is a pending request seen from one side; User is the other side.
type FriendRequest struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	User        UserSummary `json:"user"`
	RequestedAt time.Time   `json:"requestedAt"`
}

// Friendship is an accepted edge seen from one side; User is the friend.
type Friendship struct {
	ID       string      `json:"id"`
	IsSender bool        `json:"isSender"`
	User     UserSummary `json:"user"`
	Since    time.Time   `json:"updatedAt"`
}

// SendFriendRequest creates a pending edge from the actor to receiverID.
//
// A rejected edge older than the retention window no longer counts and is replaced, as is a
// rejected edge the actor was the receiver of.
func (s *Service) SendFriendRequest(ctx context.Context, actor Actor, receiverID string) (_ *models.Friend, err error) {
	ctx, end := startSpan(ctx, "SendFriendRequest")
	defer end(&err)

	if err := required("receiverId", receiverID); err != nil {
		return nil, err
	}
	if receiverID == actor.ID {
		return nil, apperr.Validation("You can not send friend request to yourself")
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, receiverID); err != nil {
		return nil, err
	}
	receiver, err := s.store.Users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, apperr.NotFoundf("The user you sent request is not found!")
	}
	if receiver.Status != models.UserStatusActive {
		return nil, apperr.Validation("The user you sent friend request is not active")
	}

	existing, err := s.store.Friends.FindBetween(ctx, actor.ID, receiverID)
	if err != nil {
		return nil, err
	}
	var stale *models.Friend
	if existing != nil {
		switch existing.Status {
		case models.FriendStatusPending:
			if existing.SenderID == receiverID {
				return nil, apperr.Conflict("The user has already sent you a friend request. You can accept or reject this friend request")
			}
			return nil, apperr.Conflict("You have already sent friend request to this user")
		case models.FriendStatusAccepted:
			return nil, apperr.Conflict("The user is already your friend")
		case models.FriendStatusRejected:
			if existing.SenderID == actor.ID && !s.rejectionExpired(existing) {
				days := int(s.cfg.RejectedRequestRetention / (24 * time.Hour))
				return nil, apperr.Conflict("The previous friend request was rejected. Please wait for %d days to send again friend request to this user", days)
			}
			stale = existing
		}
	}

	now := s.now()
	edge := &models.Friend{
		SenderID:    actor.ID,
		ReceiverID:  receiverID,
		Status:      models.FriendStatusPending,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		if stale != nil {
			if err := tx.Friends.Delete(ctx, stale.ID); err != nil {
				return err
			}
		}
		if err := tx.Friends.Create(ctx, edge); err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("A friend request between you and the user already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.resolver.Invalidate(ctx, actor.ID, receiverID)

	s.notifier.Dispatch(ctx, models.Notification{
		SenderID:   strPtr(actor.ID),
		ReceiverID: receiverID,
		Action:     models.ActionFriendRequest,
		TargetType: models.NotifyTargetFriend,
		TargetID:   edge.ID,
		Message:    s.fullName(ctx, actor.ID) + " sent you a friend request",
		URL:        "/friends/requests/received",
		URLMethod:  "GET",
	})
	return edge, nil
}

func (s *Service) rejectionExpired(edge *models.Friend) bool {
	if edge.RejectedAt == nil {
		return false
	}
	return s.now().Sub(*edge.RejectedAt) >= s.cfg.RejectedRequestRetention
}

// loadRequest loads a friend edge for one of the request transitions. verb names the
// transition in messages ("accept", "reject", "undo").
func (s *Service) loadRequest(ctx context.Context, actor Actor, requestID, verb string) (*models.Friend, error) {
	if err := required("requestId", requestID); err != nil {
		return nil, err
	}
	if requestID == actor.ID {
		return nil, apperr.Validation("You can not %s friend request to yourself", verb)
	}
	edge, err := s.store.Friends.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apperr.NotFoundf("The friend request you want to %s is not found", verb)
	}
	return edge, nil
}

// AcceptFriendRequest accepts a pending request the actor received.
func (s *Service) AcceptFriendRequest(ctx context.Context, actor Actor, requestID string) (_ *models.Friend, err error) {
	ctx, end := startSpan(ctx, "AcceptFriendRequest")
	defer end(&err)

	edge, err := s.loadRequest(ctx, actor, requestID, "accept")
	if err != nil {
		return nil, err
	}
	if edge.ReceiverID != actor.ID {
		return nil, apperr.Forbidden("You can't accept other users friend request")
	}
	switch edge.Status {
	case models.FriendStatusAccepted:
		return nil, apperr.Conflict("You are already friends")
	case models.FriendStatusRejected:
		return nil, apperr.Conflict("You have already rejected the friend request")
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, edge.SenderID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.Friends.Update(ctx, edge.ID, map[string]interface{}{
		"status":     models.FriendStatusAccepted,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	edge.Status = models.FriendStatusAccepted
	edge.UpdatedAt = now
	s.resolver.Invalidate(ctx, edge.SenderID, edge.ReceiverID)

	s.notifier.Dispatch(ctx, models.Notification{
		SenderID:   strPtr(actor.ID),
		ReceiverID: edge.SenderID,
		Action:     models.ActionFriendRequestAccepted,
		TargetType: models.NotifyTargetFriend,
		TargetID:   edge.ID,
		Message:    s.fullName(ctx, actor.ID) + " accepted your friend request",
		URL:        "/users/profile/" + actor.ID,
		URLMethod:  "GET",
	})
	return edge, nil
}

// RejectFriendRequest rejects a pending request the actor received. The sender may not send
// another request until the retention window has passed.
func (s *Service) RejectFriendRequest(ctx context.Context, actor Actor, requestID string) (_ *models.Friend, err error) {
	ctx, end := startSpan(ctx, "RejectFriendRequest")
	defer end(&err)

	edge, err := s.loadRequest(ctx, actor, requestID, "reject")
	if err != nil {
		return nil, err
	}
	if edge.ReceiverID != actor.ID {
		return nil, apperr.Forbidden("You can't reject other users friend request")
	}
	switch edge.Status {
	case models.FriendStatusAccepted:
		return nil, apperr.Conflict("You are already friends")
	case models.FriendStatusRejected:
		return nil, apperr.Conflict("You have already rejected the friend request")
	}

	now := s.now()
	if err := s.store.Friends.Update(ctx, edge.ID, map[string]interface{}{
		"status":      models.FriendStatusRejected,
		"rejected_at": now,
	}); err != nil {
		return nil, err
	}
	edge.Status = models.FriendStatusRejected
	edge.RejectedAt = &now
	s.resolver.Invalidate(ctx, edge.SenderID, edge.ReceiverID)
	return edge, nil
}

// UndoFriendRequest withdraws a pending request the actor sent.
func (s *Service) UndoFriendRequest(ctx context.Context, actor Actor, requestID string) (err error) {
	ctx, end := startSpan(ctx, "UndoFriendRequest")
	defer end(&err)

	edge, err := s.loadRequest(ctx, actor, requestID, "undo")
	if err != nil {
		return err
	}
	if edge.SenderID != actor.ID {
		return apperr.Forbidden("You can't undo other users friend request")
	}
	switch edge.Status {
	case models.FriendStatusAccepted:
		return apperr.Conflict("You are already friends")
	case models.FriendStatusRejected:
		return apperr.Conflict("The friend request is already rejected by the user")
	}

	if err := s.store.Friends.Delete(ctx, edge.ID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, edge.SenderID, edge.ReceiverID)
	return nil
}

// Unfriend removes the accepted edge between the actor and friendID and returns the former
// friend's name.
func (s *Service) Unfriend(ctx context.Context, actor Actor, friendID string) (_ string, err error) {
	ctx, end := startSpan(ctx, "Unfriend")
	defer end(&err)

	if err := required("friendId", friendID); err != nil {
		return "", err
	}
	if friendID == actor.ID {
		return "", apperr.Validation("You cannot delete yourself")
	}
	edge, err := s.store.Friends.FindBetween(ctx, actor.ID, friendID)
	if err != nil {
		return "", err
	}
	if edge == nil {
		return "", apperr.NotFoundf("The user you want to delete from your friend list is not found")
	}
	if edge.Status != models.FriendStatusAccepted {
		return "", apperr.Validation("The user you want to delete from your friend list is not your friend")
	}

	if err := s.store.Friends.Delete(ctx, edge.ID); err != nil {
		return "", err
	}
	s.resolver.Invalidate(ctx, actor.ID, friendID)
	return s.fullName(ctx, friendID), nil
}

// PurgeExpiredRejections deletes rejected edges older than the retention window.
func (s *Service) PurgeExpiredRejections(ctx context.Context) (_ int64, err error) {
	ctx, end := startSpan(ctx, "PurgeExpiredRejections")
	defer end(&err)

	cutoff := s.now().Add(-s.cfg.RejectedRequestRetention)
	n, err := s.store.Friends.DeleteRejectedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log(ctx).Info("Purged expired friend rejections", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// ListReceivedRequests lists pending requests sent to the actor by active, unblocked users.
func (s *Service) ListReceivedRequests(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[FriendRequest], err error) {
	ctx, end := startSpan(ctx, "ListReceivedRequests")
	defer end(&err)

	q := s.store.Query(ctx).Where("receiver_id = ? AND status = ?", actor.ID, models.FriendStatusPending)
	q, err = s.counterpartyScope(ctx, actor, q, "sender_id")
	if err != nil {
		return nil, err
	}
	return s.requestPage(ctx, actor, q, params)
}

// ListSentRequests lists pending requests the actor sent to active, unblocked users.
func (s *Service) ListSentRequests(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[FriendRequest], err error) {
	ctx, end := startSpan(ctx, "ListSentRequests")
	defer end(&err)

	q := s.store.Query(ctx).Where("sender_id = ? AND status = ?", actor.ID, models.FriendStatusPending)
	q, err = s.counterpartyScope(ctx, actor, q, "receiver_id")
	if err != nil {
		return nil, err
	}
	return s.requestPage(ctx, actor, q, params)
}

// ListFriends lists the actor's accepted friendships, most recent first.
func (s *Service) ListFriends(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[Friendship], err error) {
	ctx, end := startSpan(ctx, "ListFriends")
	defer end(&err)

	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	active := s.store.Query(ctx).Model(&models.User{}).Select("id").Where("status = ?", models.UserStatusActive)

	q := s.store.Query(ctx).
		Where("status = ?", models.FriendStatusAccepted).
		Where(
			s.store.Query(ctx).
				Where("sender_id = ? AND receiver_id IN (?)", actor.ID, active).
				Or("receiver_id = ? AND sender_id IN (?)", actor.ID, active),
		)
	if len(excluded) > 0 {
		q = q.Where("sender_id NOT IN ? AND receiver_id NOT IN ?", excluded, excluded)
	}

	page, err := list[models.Friend](s, q, pageOnly(params)).
		Sort("-updated_at").
		Paginate(s.cfg.DefaultLimit).
		Page(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(page.Data))
	for i, e := range page.Data {
		ids[i] = e.Counterparty(actor.ID)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &query.Page[Friendship]{Meta: page.Meta, Data: make([]Friendship, len(page.Data))}
	for i, e := range page.Data {
		out.Data[i] = Friendship{
			ID:       e.ID,
			IsSender: e.SenderID == actor.ID,
			User:     cardOf(cards, ids[i]),
			Since:    e.UpdatedAt,
		}
	}
	return out, nil
}

// counterpartyScope keeps edges whose column points at an active user who is not blocked with
// the actor.
func (s *Service) counterpartyScope(ctx context.Context, actor Actor, q *gorm.DB, column string) (*gorm.DB, error) {
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	active := s.store.Query(ctx).Model(&models.User{}).Select("id").Where("status = ?", models.UserStatusActive)
	q = q.Where(column+" IN (?)", active)
	if len(excluded) > 0 {
		q = q.Where(column+" NOT IN ?", excluded)
	}
	return q, nil
}

func (s *Service) requestPage(ctx context.Context, actor Actor, q *gorm.DB, params query.Params) (*query.Page[FriendRequest], error) {
	page, err := list[models.Friend](s, q, pageOnly(params)).
		Sort("-requested_at").
		Paginate(s.cfg.DefaultLimit).
		Page(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(page.Data))
	for i, e := range page.Data {
		ids[i] = e.Counterparty(actor.ID)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &query.Page[FriendRequest]{Meta: page.Meta, Data: make([]FriendRequest, len(page.Data))}
	for i, e := range page.Data {
		out.Data[i] = FriendRequest{
			ID:          e.ID,
			Status:      e.Status,
			User:        cardOf(cards, ids[i]),
			RequestedAt: e.RequestedAt,
		}
	}
	return out, nil
}

// cardOf returns the card of id, or a card carrying only the ID when the profile is missing.
func cardOf(cards map[string]UserSummary, id string) UserSummary {
	if c, ok := cards[id]; ok {
		return c
	}
	return UserSummary{UserID: id}
}
