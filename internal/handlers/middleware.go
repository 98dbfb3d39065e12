package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library/internal/models"
)

const actorKey = "actor"

// authRequired verifies the bearer token and stores the acting user in the
// request context. Every guarded route sees a valid Actor or a 401.
func authRequired(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		actor, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// adminRequired must run after authRequired.
func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	actor, _ := c.Get(actorKey)
	if a, ok := actor.(models.Actor); ok {
		return a
	}
	return models.Actor{}
}
