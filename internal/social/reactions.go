package social

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// ReactionInput sets, changes or (with an empty Type) removes the actor's reaction on a post or
// comment.
type ReactionInput struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Type       string `json:"type"`
}

// ReactionView is one reaction with its author.
type ReactionView struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ReactionSummary counts the reactions of a target by type. Grouped includes a "total" entry
// and is sorted by count, highest first.
type ReactionSummary struct {
	Grouped    []db.ReactionCount `json:"grouped"`
	Total      int64              `json:"total"`
	LatestName string             `json:"fullName,omitempty"`
}

// reactionTarget is the owner of a reactable item and where notifications point to.
type reactionTarget struct {
	ownerID string
	postID  string
}

// authorizeReactionTarget checks that the actor may react to (or read the reactions of) the
// target and returns its owner.
func (s *Service) authorizeReactionTarget(ctx context.Context, actor Actor, targetType, targetID string, kind audience.Interaction) (*reactionTarget, error) {
	if err := required("targetId", targetID); err != nil {
		return nil, err
	}
	switch targetType {
	case models.TargetPost:
		post, err := s.readablePost(ctx, actor, targetID, kind)
		if err != nil {
			return nil, err
		}
		return &reactionTarget{ownerID: post.UserID, postID: post.ID}, nil
	case models.TargetComment:
		comment, err := s.store.Comments.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if comment == nil {
			return nil, apperr.NotFoundf("The comment is not found !")
		}
		if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, comment.AuthorID); err != nil {
			return nil, err
		}
		post, err := s.readablePost(ctx, actor, comment.PostID, kind)
		if err != nil {
			return nil, err
		}
		return &reactionTarget{ownerID: comment.AuthorID, postID: post.ID}, nil
	default:
		return nil, apperr.Validation("invalid reaction target type %q", targetType)
	}
}

// ToggleReaction applies the reaction and returns a message describing the outcome. Repeating
// the same reaction changes nothing.
func (s *Service) ToggleReaction(ctx context.Context, actor Actor, in ReactionInput) (_ string, err error) {
	ctx, end := startSpan(ctx, "ToggleReaction")
	defer end(&err)

	if in.Type != "" && !models.ValidReactionType(in.Type) {
		return "", apperr.Validation("invalid reaction type %q", in.Type)
	}
	target, err := s.authorizeReactionTarget(ctx, actor, in.TargetType, in.TargetID, audience.React)
	if err != nil {
		return "", err
	}

	existing, err := s.store.Reactions.Find(ctx, actor.ID, in.TargetType, in.TargetID)
	if err != nil {
		return "", err
	}

	switch {
	case existing == nil && in.Type == "":
		return "", apperr.Validation("You haven't reacted to this %s yet. Please react first", in.TargetType)
	case existing != nil && existing.Type == in.Type:
		return fmt.Sprintf("You have already reacted %s to this %s.", in.Type, in.TargetType), nil
	case existing != nil && in.Type == "":
		if err := s.store.Reactions.Delete(ctx, existing.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Your reaction has been removed from this %s.", in.TargetType), nil
	case existing != nil:
		if err := s.store.Reactions.SetType(ctx, existing.ID, in.Type); err != nil {
			return "", err
		}
		return fmt.Sprintf("You have reacted %s to this %s.", in.Type, in.TargetType), nil
	}

	reaction := &models.Reaction{
		UserID:     actor.ID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Type:       in.Type,
	}
	if err := s.store.Reactions.Create(ctx, reaction); err != nil {
		if !isDuplicate(err) {
			return "", err
		}
		return s.reactAfterDuplicate(ctx, actor, in)
	}

	if target.ownerID != actor.ID {
		s.notifier.Dispatch(ctx, models.Notification{
			SenderID:   strPtr(actor.ID),
			ReceiverID: target.ownerID,
			Action:     models.ActionReacted,
			TargetType: in.TargetType,
			TargetID:   in.TargetID,
			Message:    fmt.Sprintf("%s reacted %s to your %s", s.fullName(ctx, actor.ID), in.Type, in.TargetType),
			URL:        "/posts/" + target.postID,
			URLMethod:  "GET",
		})
	}
	return fmt.Sprintf("You have reacted %s to this %s.", in.Type, in.TargetType), nil
}

// reactAfterDuplicate handles a create that lost to a concurrent toggle of the same actor. The
// winning row takes the requested type; if it is already gone the toggle is reported as a
// conflict so the client can retry.
func (s *Service) reactAfterDuplicate(ctx context.Context, actor Actor, in ReactionInput) (string, error) {
	current, err := s.store.Reactions.Find(ctx, actor.ID, in.TargetType, in.TargetID)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", apperr.Conflict("Your reaction to this %s changed concurrently. Please try again", in.TargetType)
	}
	if err := s.store.Reactions.SetType(ctx, current.ID, in.Type); err != nil {
		return "", err
	}
	return fmt.Sprintf("You have reacted %s to this %s.", in.Type, in.TargetType), nil
}

// ListReactions lists the reactions of a target by active users who are not blocked with the
// actor. The type parameter filters by reaction type.
func (s *Service) ListReactions(ctx context.Context, actor Actor, targetType, targetID string, params query.Params) (_ *query.Page[ReactionView], err error) {
	ctx, end := startSpan(ctx, "ListReactions")
	defer end(&err)

	if _, err := s.authorizeReactionTarget(ctx, actor, targetType, targetID, audience.Read); err != nil {
		return nil, err
	}
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	active := s.store.Query(ctx).Model(&models.User{}).Select("id").Where("status = ?", models.UserStatusActive)
	q := s.store.Query(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Where("user_id IN (?)", active)
	if len(excluded) > 0 {
		q = q.Where("user_id NOT IN ?", excluded)
	}

	filters := params.Without("targetType", "targetId", "target_type", "target_id")
	page, err := list[models.Reaction](s, q, filters).
		Filter().
		Sort("-created_at").
		Paginate(s.cfg.DefaultLimit).
		Page(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(page.Data))
	for i, r := range page.Data {
		ids[i] = r.UserID
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := &query.Page[ReactionView]{Meta: page.Meta, Data: make([]ReactionView, len(page.Data))}
	for i, r := range page.Data {
		out.Data[i] = ReactionView{ID: r.ID, Type: r.Type, User: cardOf(cards, r.UserID), CreatedAt: r.CreatedAt}
	}
	return out, nil
}

// SummarizeReactions groups the reactions of a target by type and names the latest reactor.
func (s *Service) SummarizeReactions(ctx context.Context, actor Actor, targetType, targetID string) (_ *ReactionSummary, err error) {
	ctx, end := startSpan(ctx, "SummarizeReactions")
	defer end(&err)

	if _, err := s.authorizeReactionTarget(ctx, actor, targetType, targetID, audience.Read); err != nil {
		return nil, err
	}
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.Reactions.CountByType(ctx, targetType, targetID, excluded)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	grouped := append(counts, db.ReactionCount{Type: "total", Count: total})
	sort.SliceStable(grouped, func(i, j int) bool { return grouped[i].Count > grouped[j].Count })

	summary := &ReactionSummary{Grouped: grouped, Total: total}
	latest, err := s.store.Reactions.Latest(ctx, targetType, targetID, excluded)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		summary.LatestName = s.fullName(ctx, latest.UserID)
	}
	return summary, nil
}
