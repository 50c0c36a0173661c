package social

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/models"
)

// UserSummary is the public card of a user embedded in list results.
type UserSummary struct {
	UserID       string `json:"userId"`
	FullName     string `json:"fullName"`
	ProfilePhoto string `json:"profilePhoto"`
}

// summaries loads the cards of the given users keyed by user ID. Users without a profile are
// absent from the map.
func (s *Service) summaries(ctx context.Context, ids []string) (map[string]UserSummary, error) {
	profiles, err := s.store.Users.ProfilesByUserIDs(ctx, uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	out := make(map[string]UserSummary, len(profiles))
	for id, p := range profiles {
		out[id] = UserSummary{UserID: id, FullName: p.FullName, ProfilePhoto: p.ProfilePhoto}
	}
	return out, nil
}

// summaryList keeps the order of ids and skips users without a profile.
func summaryList(ids []string, cards map[string]UserSummary) []UserSummary {
	out := make([]UserSummary, 0, len(ids))
	for _, id := range ids {
		if c, ok := cards[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// fullName returns the display name of a user, or "Someone" when the profile is missing.
func (s *Service) fullName(ctx context.Context, userID string) string {
	p, err := s.store.Users.GetProfile(ctx, userID)
	if err != nil || p == nil || p.FullName == "" {
		return "Someone"
	}
	return p.FullName
}

// PostView is a post with its author and tagged users resolved.
type PostView struct {
	models.Post
	Author     *UserSummary  `json:"author,omitempty"`
	TaggedUser []UserSummary `json:"taggedUsers"`
}

// postViews resolves authors and tags of posts with a single profile lookup.
func (s *Service) postViews(ctx context.Context, posts []models.Post) ([]PostView, error) {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.UserID)
		ids = append(ids, p.Tags...)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PostView, len(posts))
	for i, p := range posts {
		out[i] = PostView{Post: p, TaggedUser: summaryList(p.Tags, cards)}
		if c, ok := cards[p.UserID]; ok {
			c := c
			out[i].Author = &c
		}
	}
	return out, nil
}

// CommentView is a comment with its author and mentioned users resolved.
type CommentView struct {
	models.Comment
	Author        *UserSummary  `json:"author,omitempty"`
	MentionedUser []UserSummary `json:"mentionedUsers"`
}

func (s *Service) commentViews(ctx context.Context, comments []models.Comment) ([]CommentView, error) {
	var ids []string
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
		ids = append(ids, c.Mentions...)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, len(comments))
	for i, c := range comments {
		out[i] = CommentView{Comment: c, MentionedUser: summaryList(c.Mentions, cards)}
		if card, ok := cards[c.AuthorID]; ok {
			card := card
			out[i].Author = &card
		}
	}
	return out, nil
}

// StoryView is a story with its owner and mentioned users resolved.
type StoryView struct {
	models.Story
	Owner         *UserSummary  `json:"owner,omitempty"`
	MentionedUser []UserSummary `json:"mentionedUsers"`
}

func (s *Service) storyViews(ctx context.Context, stories []models.Story) ([]StoryView, error) {
	var ids []string
	for _, st := range stories {
		ids = append(ids, st.UserID)
		ids = append(ids, st.Mentions...)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]StoryView, len(stories))
	for i, st := range stories {
		out[i] = StoryView{Story: st, MentionedUser: summaryList(st.Mentions, cards)}
		if c, ok := cards[st.UserID]; ok {
			c := c
			out[i].Owner = &c
		}
	}
	return out, nil
}

var mentionPattern = regexp.MustCompile(`@([a-z0-9._]{3,20})`)

// extractMentions returns the distinct usernames mentioned in content, in order of appearance.
func extractMentions(content string) []string {
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	return uniq(names)
}

// resolveMentions maps the usernames mentioned in content to user IDs. A mention resolves only to
// a verified active user other than the author who is not blocked with the author and who may
// read the item the mention appears in. Everything else is dropped silently.
func (s *Service) resolveMentions(ctx context.Context, authorID, content string, item audience.Item) ([]string, error) {
	names := extractMentions(content)
	if len(names) == 0 {
		return []string{}, nil
	}
	users, err := s.store.Users.GetByUsernames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentioned users: %w", err)
	}
	excluded, err := s.resolver.ExcludedCounterparties(ctx, authorID)
	if err != nil {
		return nil, err
	}
	friends, err := s.resolver.FriendIDs(ctx, authorID)
	if err != nil {
		return nil, err
	}
	blocked, friendSet := toSet(excluded), toSet(friends)

	byName := make(map[string]models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		u, ok := byName[name]
		if !ok || u.ID == authorID || !u.IsVerified || u.Status != models.UserStatusActive {
			continue
		}
		if blocked[u.ID] {
			continue
		}
		if !audience.CanRead(audience.Viewer{ID: u.ID, IsFriend: friendSet[u.ID]}, item) {
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// mentionNotifications builds one "mentioned" notification per receiver.
func mentionNotifications(senderID string, receivers []string, targetType, targetID, message, url string, at time.Time) []models.Notification {
	out := make([]models.Notification, 0, len(receivers))
	for _, id := range receivers {
		out = append(out, models.Notification{
			SenderID:   strPtr(senderID),
			ReceiverID: id,
			Action:     models.ActionMentioned,
			TargetType: targetType,
			TargetID:   targetID,
			Message:    message,
			URL:        url,
			URLMethod:  "GET",
			CreatedAt:  at,
		})
	}
	return out
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
