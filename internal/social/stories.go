package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// StoryInput describes a new story.
type StoryInput struct {
	Image    string `json:"image"`
	Content  string `json:"content"`
	Audience string `json:"audience"`
}

// StoryViewer is one view of the actor's story.
type StoryViewer struct {
	User         UserSummary `json:"user"`
	ReactionType string      `json:"reactionType,omitempty"`
	ViewedAt     time.Time   `json:"viewedAt"`
}

// StoryGroup holds the active stories of one owner, newest first.
type StoryGroup struct {
	User    UserSummary `json:"user"`
	Stories []StoryView `json:"stories"`
}

// CreateStory publishes a story that expires after the configured TTL.
func (s *Service) CreateStory(ctx context.Context, actor Actor, in StoryInput) (_ *StoryView, err error) {
	ctx, end := startSpan(ctx, "CreateStory")
	defer end(&err)

	aud, err := audience.Parse(in.Audience)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" && in.Image == "" {
		return nil, apperr.Validation("A story needs an image or content")
	}

	now := s.now()
	story := &models.Story{
		UserID:    actor.ID,
		Image:     in.Image,
		Content:   in.Content,
		Audience:  aud,
		ExpiresAt: now.Add(s.cfg.StoryTTL),
		CreatedAt: now,
	}
	story.Mentions, err = s.resolveMentions(ctx, actor.ID, in.Content, story.AudienceItem())
	if err != nil {
		return nil, err
	}
	if err := s.store.Stories.Create(ctx, story); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, mentionNotifications(actor.ID, story.Mentions, models.NotifyTargetStory, story.ID,
		s.fullName(ctx, actor.ID)+" mentioned you in a story", "/stories/"+story.ID, now)...)

	views, err := s.storyViews(ctx, []models.Story{*story})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ArchivedStories lists the actor's expired stories.
func (s *Service) ArchivedStories(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[StoryView], err error) {
	ctx, end := startSpan(ctx, "ArchivedStories")
	defer end(&err)

	q := s.store.Query(ctx).Where("user_id = ? AND expires_at <= ?", actor.ID, s.now())
	page, err := list[models.Story](s, q, pageOnly(params)).
		Sort(s.cfg.DefaultSort).
		Paginate(s.cfg.DefaultLimit).
		Fields().
		Page(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.storyViews(ctx, page.Data)
	if err != nil {
		return nil, err
	}
	return &query.Page[StoryView]{Meta: page.Meta, Data: views}, nil
}

// ActiveStoriesByUser lists the unexpired stories of userID the actor may see.
func (s *Service) ActiveStoriesByUser(ctx context.Context, actor Actor, userID string) (_ []StoryView, err error) {
	ctx, end := startSpan(ctx, "ActiveStoriesByUser")
	defer end(&err)

	if err := required("userId", userID); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("The user is not found")
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, userID); err != nil {
		return nil, err
	}
	viewer, err := s.resolver.Viewer(ctx, actor.ID, userID)
	if err != nil {
		return nil, err
	}

	filter := audience.ForViewer(actor.ID, userID, viewer.IsFriend, "")
	filter.NotExpiredAt = s.now()
	var stories []models.Story
	if err := s.store.Query(ctx).Scopes(filter.Scope()).Order("created_at DESC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	return s.storyViews(ctx, stories)
}

// readableStory loads an unexpired story the actor may read.
func (s *Service) readableStory(ctx context.Context, actor Actor, storyID string, kind audience.Interaction) (*models.Story, error) {
	if err := required("storyId", storyID); err != nil {
		return nil, err
	}
	story, err := s.store.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, apperr.NotFoundf("The story is not found")
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, story.UserID); err != nil {
		return nil, err
	}
	if story.Expired(s.now()) && story.UserID != actor.ID {
		return nil, apperr.Validation("The story is expired!")
	}
	viewer, err := s.resolver.Viewer(ctx, actor.ID, story.UserID)
	if err != nil {
		return nil, err
	}
	if err := audience.CanInteract(viewer, story.AudienceItem(), kind); err != nil {
		return nil, err
	}
	return story, nil
}

// GetStory returns a story the actor may see.
func (s *Service) GetStory(ctx context.Context, actor Actor, storyID string) (_ *StoryView, err error) {
	ctx, end := startSpan(ctx, "GetStory")
	defer end(&err)

	story, err := s.readableStory(ctx, actor, storyID, audience.Read)
	if err != nil {
		return nil, err
	}
	views, err := s.storyViews(ctx, []models.Story{*story})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ViewStory records that the actor opened a story. It reports whether this was the first view;
// owners viewing their own story are not recorded.
func (s *Service) ViewStory(ctx context.Context, actor Actor, storyID string) (_ bool, err error) {
	ctx, end := startSpan(ctx, "ViewStory")
	defer end(&err)

	story, err := s.readableStory(ctx, actor, storyID, audience.View)
	if err != nil {
		return false, err
	}
	if story.UserID == actor.ID {
		return false, nil
	}
	var first bool
	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		var err error
		first, err = tx.Stories.RecordView(ctx, &models.StoryView{StoryID: story.ID, UserID: actor.ID, ViewedAt: s.now()})
		return err
	})
	return first, err
}

// ReactToStory records the actor's reaction to a story, viewing it first if needed.
func (s *Service) ReactToStory(ctx context.Context, actor Actor, storyID, reactionType string) (err error) {
	ctx, end := startSpan(ctx, "ReactToStory")
	defer end(&err)

	if !models.ValidReactionType(reactionType) {
		return apperr.Validation("invalid reaction type %q", reactionType)
	}
	story, err := s.readableStory(ctx, actor, storyID, audience.React)
	if err != nil {
		return err
	}
	if story.UserID == actor.ID {
		return apperr.Validation("You can not react in your own story")
	}

	err = s.store.WithTx(ctx, func(tx *db.Store) error {
		if _, err := tx.Stories.RecordView(ctx, &models.StoryView{StoryID: story.ID, UserID: actor.ID, ViewedAt: s.now()}); err != nil {
			return err
		}
		return tx.Stories.SetViewReaction(ctx, story.ID, actor.ID, reactionType)
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, models.Notification{
		SenderID:   strPtr(actor.ID),
		ReceiverID: story.UserID,
		Action:     models.ActionReacted,
		TargetType: models.NotifyTargetStory,
		TargetID:   story.ID,
		Message:    fmt.Sprintf("%s reacted %s to your story", s.fullName(ctx, actor.ID), reactionType),
		URL:        "/stories/" + story.ID,
		URLMethod:  "GET",
	})
	return nil
}

// ListStoryViews lists who viewed the actor's story. Viewers blocked with the actor are left out.
func (s *Service) ListStoryViews(ctx context.Context, actor Actor, storyID string) (_ []StoryViewer, err error) {
	ctx, end := startSpan(ctx, "ListStoryViews")
	defer end(&err)

	if err := required("storyId", storyID); err != nil {
		return nil, err
	}
	story, err := s.store.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, apperr.NotFoundf("The story is not found")
	}
	if story.UserID != actor.ID {
		return nil, apperr.Forbidden("You will not be able to view other user's story views")
	}

	views, err := s.store.Stories.ListViews(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	blocked := toSet(excluded)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.UserID)
	}
	cards, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]StoryViewer, 0, len(views))
	for _, v := range views {
		if blocked[v.UserID] {
			continue
		}
		out = append(out, StoryViewer{User: cardOf(cards, v.UserID), ReactionType: v.ReactionType, ViewedAt: v.ViewedAt})
	}
	return out, nil
}

// DeleteStory deletes the actor's story with its views.
func (s *Service) DeleteStory(ctx context.Context, actor Actor, storyID string) (err error) {
	ctx, end := startSpan(ctx, "DeleteStory")
	defer end(&err)

	if err := required("storyId", storyID); err != nil {
		return err
	}
	story, err := s.store.Stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story == nil {
		return apperr.NotFoundf("The story is not found")
	}
	if story.UserID != actor.ID {
		return apperr.Forbidden("You are not authorized to delete this story.")
	}
	return s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.Stories.DeleteViews(ctx, story.ID); err != nil {
			return err
		}
		return tx.Stories.Delete(ctx, story.ID)
	})
}

// StoryFeed groups the unexpired stories visible in the actor's feed by owner. The actor's own
// group comes first, then owners by their most recent story.
func (s *Service) StoryFeed(ctx context.Context, actor Actor) (_ []StoryGroup, err error) {
	ctx, end := startSpan(ctx, "StoryFeed")
	defer end(&err)

	filters, err := s.feedFilters(ctx, actor, "")
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range filters {
		filters[i].NotExpiredAt = now
	}

	var stories []models.Story
	if err := s.store.Query(ctx).Scopes(audience.Any(filters...)).Order("created_at DESC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	views, err := s.storyViews(ctx, stories)
	if err != nil {
		return nil, err
	}

	var groups []StoryGroup
	index := make(map[string]int)
	for _, v := range views {
		i, ok := index[v.UserID]
		if !ok {
			owner := UserSummary{UserID: v.UserID}
			if v.Owner != nil {
				owner = *v.Owner
			}
			i = len(groups)
			index[v.UserID] = i
			groups = append(groups, StoryGroup{User: owner})
		}
		groups[i].Stories = append(groups[i].Stories, v)
	}
	if i, ok := index[actor.ID]; ok && i > 0 {
		own := groups[i]
		copy(groups[1:i+1], groups[:i])
		groups[0] = own
	}
	return groups, nil
}

// NotifyExpiredStories tells owners about their stories that expired in (since, until]. It
// returns the number of stories found.
func (s *Service) NotifyExpiredStories(ctx context.Context, since, until time.Time) (_ int, err error) {
	ctx, end := startSpan(ctx, "NotifyExpiredStories")
	defer end(&err)

	if !until.After(since) {
		return 0, nil
	}
	stories, err := s.store.Stories.Expired(ctx, since, until)
	if err != nil {
		return 0, err
	}
	notes := make([]models.Notification, 0, len(stories))
	for _, st := range stories {
		notes = append(notes, models.Notification{
			ReceiverID:   st.UserID,
			Action:       models.ActionStoryExpired,
			TargetType:   models.NotifyTargetStory,
			TargetID:     st.ID,
			Message:      "Your story has expired. You can find it in your archive",
			IsFromSystem: true,
			URL:          "/stories/archive",
			URLMethod:    "GET",
		})
	}
	s.notifier.Dispatch(ctx, notes...)
	if len(stories) > 0 {
		s.log(ctx).Info("Expired stories notified", zap.Int("count", len(stories)))
	}
	return len(stories), nil
}
