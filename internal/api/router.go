package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/api/circle"
	"github.com/steemit/circlemind/internal/social"
	"github.com/steemit/circlemind/pkg/logging"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	svc     *social.Service
	checks  map[string]HealthChecker
	logger  *zap.Logger
}

// NewRouter creates a new API router. checks are run by the health endpoint.
func NewRouter(svc *social.Service, checks map[string]HealthChecker) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		svc:     svc,
		checks:  checks,
		logger:  logging.WithComponent("api-router"),
	}

	// Register all API methods
	router.registerMethods()

	return router
}

// Handler exposes the JSON-RPC handler.
func (r *Router) Handler() *JSONRPCHandler {
	return r.handler
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", ActorMiddleware(), r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	users := circle.NewUsersAPI(r.svc)
	r.handler.RegisterMethod("circle_api.create_user", users.CreateUser)
	r.handler.RegisterMethod("circle_api.get_profile", users.GetProfile)
	r.handler.RegisterMethod("circle_api.suspend_user", users.SuspendUser)
	r.handler.RegisterMethod("circle_api.unsuspend_user", users.UnsuspendUser)
	r.handler.RegisterMethod("circle_api.block_user", users.BlockUser)
	r.handler.RegisterMethod("circle_api.unblock_user", users.UnblockUser)
	r.handler.RegisterMethod("circle_api.list_blocked_users", users.ListBlocked)

	friends := circle.NewFriendsAPI(r.svc)
	r.handler.RegisterMethod("circle_api.send_friend_request", friends.SendRequest)
	r.handler.RegisterMethod("circle_api.accept_friend_request", friends.AcceptRequest)
	r.handler.RegisterMethod("circle_api.reject_friend_request", friends.RejectRequest)
	r.handler.RegisterMethod("circle_api.undo_friend_request", friends.UndoRequest)
	r.handler.RegisterMethod("circle_api.unfriend", friends.Unfriend)
	r.handler.RegisterMethod("circle_api.list_received_requests", friends.ListReceived)
	r.handler.RegisterMethod("circle_api.list_sent_requests", friends.ListSent)
	r.handler.RegisterMethod("circle_api.list_friends", friends.ListFriends)

	posts := circle.NewPostsAPI(r.svc)
	r.handler.RegisterMethod("circle_api.create_post", posts.CreatePost)
	r.handler.RegisterMethod("circle_api.get_post", posts.GetPost)
	r.handler.RegisterMethod("circle_api.list_my_posts", posts.ListMyPosts)
	r.handler.RegisterMethod("circle_api.list_user_posts", posts.ListUserPosts)
	r.handler.RegisterMethod("circle_api.get_feed", posts.Feed)
	r.handler.RegisterMethod("circle_api.update_post", posts.UpdatePost)
	r.handler.RegisterMethod("circle_api.delete_post", posts.DeletePost)
	r.handler.RegisterMethod("circle_api.moderate_post", posts.ModeratePost)
	r.handler.RegisterMethod("circle_api.create_appeal", posts.CreateAppeal)
	r.handler.RegisterMethod("circle_api.list_appeals", posts.ListAppeals)
	r.handler.RegisterMethod("circle_api.resolve_appeal", posts.ResolveAppeal)

	content := circle.NewContentAPI(r.svc)
	r.handler.RegisterMethod("circle_api.create_comment", content.CreateComment)
	r.handler.RegisterMethod("circle_api.list_comments", content.ListComments)
	r.handler.RegisterMethod("circle_api.list_replies", content.ListReplies)
	r.handler.RegisterMethod("circle_api.update_comment", content.UpdateComment)
	r.handler.RegisterMethod("circle_api.delete_comment", content.DeleteComment)
	r.handler.RegisterMethod("circle_api.toggle_reaction", content.ToggleReaction)
	r.handler.RegisterMethod("circle_api.list_reactions", content.ListReactions)
	r.handler.RegisterMethod("circle_api.get_reaction_summary", content.ReactionSummary)

	stories := circle.NewStoriesAPI(r.svc)
	r.handler.RegisterMethod("circle_api.create_story", stories.CreateStory)
	r.handler.RegisterMethod("circle_api.list_archived_stories", stories.ListArchived)
	r.handler.RegisterMethod("circle_api.list_user_stories", stories.ListUserStories)
	r.handler.RegisterMethod("circle_api.get_story", stories.GetStory)
	r.handler.RegisterMethod("circle_api.view_story", stories.ViewStory)
	r.handler.RegisterMethod("circle_api.react_story", stories.ReactToStory)
	r.handler.RegisterMethod("circle_api.list_story_views", stories.ListViews)
	r.handler.RegisterMethod("circle_api.delete_story", stories.DeleteStory)
	r.handler.RegisterMethod("circle_api.get_story_feed", stories.Feed)

	notify := circle.NewNotifyAPI(r.svc)
	r.handler.RegisterMethod("circle_api.list_notifications", notify.ListNotifications)
	r.handler.RegisterMethod("circle_api.mark_notification_read", notify.MarkRead)
	r.handler.RegisterMethod("circle_api.mark_all_notifications_read", notify.MarkAllRead)
	r.handler.RegisterMethod("circle_api.delete_notification", notify.DeleteNotification)
	r.handler.RegisterMethod("circle_api.unread_notifications", notify.UnreadNotifications)
	r.handler.RegisterMethod("circle_api.broadcast_notification", notify.Broadcast)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range r.checks {
		if err := check.Health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "OK"
	}

	state := "OK"
	if status != http.StatusOK {
		state = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      "circlemind-api",
		"dependencies": deps,
	})
}
