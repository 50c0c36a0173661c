package social

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/audience"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
)

// PostSearchFields are matched by the searchTerm parameter of post lists.
var PostSearchFields = []string{"content", "location"}

// PostInput describes a new post.
type PostInput struct {
	Content  string   `json:"content"`
	Location string   `json:"location"`
	Media    []string `json:"media"`
	Tags     []string `json:"tags"`
	Audience string   `json:"audience"`
}

// PostUpdate changes the given fields of a post. Nil fields are left alone.
type PostUpdate struct {
	Content  *string `json:"content"`
	Location *string `json:"location"`
	Audience *string `json:"audience"`
}

// ModerationInput removes or restores a post.
type ModerationInput struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// CreatePost publishes a post. Tagged users must be verified, active friends of the actor;
// mentions resolve only to users who may read the post.
func (s *Service) CreatePost(ctx context.Context, actor Actor, in PostInput) (_ *PostView, err error) {
	ctx, end := startSpan(ctx, "CreatePost")
	defer end(&err)

	aud, err := audience.Parse(in.Audience)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" && len(in.Media) == 0 {
		return nil, apperr.Validation("A post needs content or media")
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if in.Media == nil {
		in.Media = []string{}
	}
	if err := s.validateTags(ctx, actor.ID, in.Tags); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   actor.ID,
		Content:  in.Content,
		Location: in.Location,
		Media:    in.Media,
		Tags:     in.Tags,
		Audience: aud,
		Status:   models.PostStatusActive,
	}
	post.Mentions, err = s.resolveMentions(ctx, actor.ID, in.Content, post.AudienceItem())
	if err != nil {
		return nil, err
	}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}

	name := s.fullName(ctx, actor.ID)
	url := "/posts/" + post.ID
	var notes []models.Notification
	for _, id := range post.Tags {
		notes = append(notes, models.Notification{
			SenderID:   strPtr(actor.ID),
			ReceiverID: id,
			Action:     models.ActionTagged,
			TargetType: models.NotifyTargetPost,
			TargetID:   post.ID,
			Message:    name + " tagged you in a post",
			URL:        url,
			URLMethod:  "GET",
		})
	}
	notes = append(notes, mentionNotifications(actor.ID, post.Mentions, models.NotifyTargetPost, post.ID,
		name+" mentioned you in a post", url, post.CreatedAt)...)
	s.notifier.Dispatch(ctx, notes...)

	views, err := s.postViews(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// validateTags enforces the tagging rule: no self tag, no duplicates, every tagged user exists,
// is verified and active, is an accepted friend of the author and is not blocked with them.
func (s *Service) validateTags(ctx context.Context, authorID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	for _, id := range tags {
		if id == authorID {
			return apperr.Validation("You can't tag yourself in a post")
		}
		if seen[id] {
			return apperr.Conflict("You can't tags user multiple times in a post")
		}
		seen[id] = true
	}

	users, err := s.store.Users.GetByIDs(ctx, tags)
	if err != nil {
		return err
	}
	valid := make(map[string]bool, len(users))
	for _, u := range users {
		if u.IsVerified && u.Status == models.UserStatusActive {
			valid[u.ID] = true
		}
	}
	var missing, strangers []string
	for _, id := range tags {
		if !valid[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperr.NotFoundf("The users you tags are not found. (%s)", strings.Join(missing, ", "))
	}

	for _, id := range tags {
		if err := s.resolver.AssertNotMutuallyBlocked(ctx, authorID, id); err != nil {
			return err
		}
		ok, err := s.resolver.IsFriend(ctx, authorID, id)
		if err != nil {
			return err
		}
		if !ok {
			strangers = append(strangers, id)
		}
	}
	if len(strangers) > 0 {
		return apperr.Forbidden("You can only tag your friends. (%s)", strings.Join(strangers, ", "))
	}
	return nil
}

// readablePost loads a post the actor may read. Non-owners pass the block gate first.
func (s *Service) readablePost(ctx context.Context, actor Actor, postID string, kind audience.Interaction) (*models.Post, error) {
	if err := required("postId", postID); err != nil {
		return nil, err
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("The post is not found !")
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, post.UserID); err != nil {
		return nil, err
	}
	viewer, err := s.resolver.Viewer(ctx, actor.ID, post.UserID)
	if err != nil {
		return nil, err
	}
	if err := audience.CanInteract(viewer, post.AudienceItem(), kind); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post the actor may read.
func (s *Service) GetPost(ctx context.Context, actor Actor, postID string) (_ *PostView, err error) {
	ctx, end := startSpan(ctx, "GetPost")
	defer end(&err)

	post, err := s.readablePost(ctx, actor, postID, audience.Read)
	if err != nil {
		return nil, err
	}
	views, err := s.postViews(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListMyPosts lists every post of the actor, removed and private ones included.
func (s *Service) ListMyPosts(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[PostView], err error) {
	ctx, end := startSpan(ctx, "ListMyPosts")
	defer end(&err)

	q := s.store.Query(ctx).Where("user_id = ?", actor.ID)
	return s.postPage(ctx, list[models.Post](s, q, params))
}

// ListUserPosts lists the posts of userID the actor may read. For the actor's own ID it is
// ListMyPosts.
func (s *Service) ListUserPosts(ctx context.Context, actor Actor, userID string, params query.Params) (_ *query.Page[PostView], err error) {
	if userID == actor.ID {
		return s.ListMyPosts(ctx, actor, params)
	}
	ctx, end := startSpan(ctx, "ListUserPosts")
	defer end(&err)

	if err := required("userId", userID); err != nil {
		return nil, err
	}
	if _, err := s.activeUser(ctx, userID, "The user is not found"); err != nil {
		return nil, err
	}
	if err := s.resolver.AssertNotMutuallyBlocked(ctx, actor.ID, userID); err != nil {
		return nil, err
	}
	viewer, err := s.resolver.Viewer(ctx, actor.ID, userID)
	if err != nil {
		return nil, err
	}

	filter := audience.ForViewer(actor.ID, userID, viewer.IsFriend, models.PostStatusActive)
	q := s.store.Query(ctx).Scopes(filter.Scope())
	return s.postPage(ctx, list[models.Post](s, q, params))
}

// Feed lists the actor's own posts, friends' public and friends-only posts, and public posts
// of users the actor sent a pending request to. Users blocked with the actor never appear.
func (s *Service) Feed(ctx context.Context, actor Actor, params query.Params) (_ *query.Page[PostView], err error) {
	ctx, end := startSpan(ctx, "Feed")
	defer end(&err)

	filters, err := s.feedFilters(ctx, actor, models.PostStatusActive)
	if err != nil {
		return nil, err
	}
	q := s.store.Query(ctx).Scopes(audience.Any(filters...))
	return s.postPage(ctx, list[models.Post](s, q, params))
}

// feedFilters builds the three owner groups of a feed. status, when set, is required of every
// row, own rows included.
func (s *Service) feedFilters(ctx context.Context, actor Actor, status string) ([]audience.ListFilter, error) {
	friends, following, err := s.resolver.FriendsAndFollowing(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	excluded, err := s.resolver.ExcludedCounterparties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	blocked := toSet(excluded)
	friends, following = without(friends, blocked), without(following, blocked)

	filters := []audience.ListFilter{{OwnerIDs: []string{actor.ID}, Status: status}}
	if len(friends) > 0 {
		filters = append(filters, audience.ListFilter{
			OwnerIDs:  friends,
			Audiences: audience.Visible(false, true),
			Status:    status,
		})
	}
	if len(following) > 0 {
		filters = append(filters, audience.ListFilter{
			OwnerIDs:  following,
			Audiences: audience.Visible(false, false),
			Status:    status,
		})
	}
	return filters, nil
}

func (s *Service) postPage(ctx context.Context, b *query.Builder[models.Post]) (*query.Page[PostView], error) {
	page, err := b.Search(PostSearchFields...).
		Filter().
		Sort(s.cfg.DefaultSort).
		Paginate(s.cfg.DefaultLimit).
		Fields().
		Page(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.postViews(ctx, page.Data)
	if err != nil {
		return nil, err
	}
	return &query.Page[PostView]{Meta: page.Meta, Data: views}, nil
}

// UpdatePost changes content, location or audience of the actor's own active post.
func (s *Service) UpdatePost(ctx context.Context, actor Actor, postID string, in PostUpdate) (_ *PostView, err error) {
	ctx, end := startSpan(ctx, "UpdatePost")
	defer end(&err)

	if err := required("postId", postID); err != nil {
		return nil, err
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("The post is not found !")
	}
	if post.UserID != actor.ID {
		return nil, apperr.Forbidden("You can not update other user post !")
	}
	if post.Status == models.PostStatusRemoved {
		return nil, apperr.Forbidden("The post is removed. You can't update the post!")
	}

	fields := map[string]interface{}{"updated_at": s.now()}
	if in.Audience != nil {
		aud, err := audience.Parse(*in.Audience)
		if err != nil {
			return nil, err
		}
		post.Audience = aud
		fields["audience"] = string(aud)
	}
	if in.Location != nil {
		post.Location = *in.Location
		fields["location"] = post.Location
	}
	if in.Content != nil || in.Audience != nil {
		if in.Content != nil {
			post.Content = *in.Content
			fields["content"] = post.Content
		}
		mentions, err := s.resolveMentions(ctx, actor.ID, post.Content, post.AudienceItem())
		if err != nil {
			return nil, err
		}
		post.Mentions = mentions
		fields["mentions"] = models.JSONList(mentions)
	}

	if err := s.store.Posts.Update(ctx, post.ID, fields); err != nil {
		return nil, err
	}
	updated, err := s.store.Posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	views, err := s.postViews(ctx, []models.Post{*updated})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeletePost deletes a post with its comments and all reactions on them. Owners and admins
// may delete.
func (s *Service) DeletePost(ctx context.Context, actor Actor, postID string) (err error) {
	ctx, end := startSpan(ctx, "DeletePost")
	defer end(&err)

	if err := required("postId", postID); err != nil {
		return err
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFoundf("The post is not found !")
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return apperr.Forbidden("You can not delete other user post !")
	}

	return s.store.WithTx(ctx, func(tx *db.Store) error {
		commentIDs, err := tx.Comments.DeleteByPost(ctx, post.ID)
		if err != nil {
			return err
		}
		if err := tx.Reactions.DeleteForTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		if err := tx.Reactions.DeleteForTargets(ctx, models.TargetPost, []string{post.ID}); err != nil {
			return err
		}
		return tx.Posts.Delete(ctx, post.ID)
	})
}

// ModeratePost lets an admin remove a post with a reason, or restore it. The owner is notified.
func (s *Service) ModeratePost(ctx context.Context, actor Actor, postID string, in ModerationInput) (_ *models.Post, err error) {
	ctx, end := startSpan(ctx, "ModeratePost")
	defer end(&err)

	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can moderate posts")
	}
	if in.Status != models.PostStatusActive && in.Status != models.PostStatusRemoved {
		return nil, apperr.Validation("invalid post status %q", in.Status)
	}
	if in.Status == models.PostStatusRemoved && strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("A reason is required to remove a post")
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("The post is not found !")
	}
	if post.Status == in.Status {
		return nil, apperr.Conflict("The post is already %s", in.Status)
	}

	reason := in.Reason
	if in.Status == models.PostStatusActive {
		reason = ""
	}
	if err := s.store.Posts.Update(ctx, post.ID, map[string]interface{}{
		"status":         in.Status,
		"removed_reason": reason,
	}); err != nil {
		return nil, err
	}
	post.Status, post.RemovedReason = in.Status, reason

	s.log(ctx).Info("Post moderated",
		zap.String("post_id", post.ID),
		zap.String("status", in.Status),
		zap.String("admin_id", actor.ID))

	if in.Status == models.PostStatusRemoved {
		s.notifier.Dispatch(ctx, models.Notification{
			SenderID:     strPtr(actor.ID),
			ReceiverID:   post.UserID,
			Action:       models.ActionPostRemoved,
			TargetType:   models.NotifyTargetPost,
			TargetID:     post.ID,
			Message:      "Your post was removed: " + reason,
			IsFromSystem: true,
			URL:          "/posts/" + post.ID,
			URLMethod:    "GET",
		})
	}
	return post, nil
}

func without(ids []string, drop map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
