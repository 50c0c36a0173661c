package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/steemit/circlemind/internal/api/request"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/social"
)

// ActorMiddleware reads the actor the upstream auth gateway resolved from the request headers.
// Requests without an actor pass through anonymous; methods that need one reject them.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(request.HeaderActorID))
		if id != "" {
			role := strings.ToLower(strings.TrimSpace(c.GetHeader(request.HeaderActorRole)))
			if role == "" {
				role = models.RoleUser
			}
			request.SetActor(c, social.Actor{ID: id, Role: role})
		}
		c.Next()
	}
}
