package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"healthmall/internal/domain"
	"healthmall/internal/gateway/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

// guestTokenHeader carries the anonymous session token; the server issues
// one on first contact and echoes it back.
const guestTokenHeader = "X-Guest-Token"

// actorMiddleware resolves the request to an Actor: a bearer token becomes
// a user via the identity collaborator, anything else becomes a guest
// session.
func actorMiddleware(identitySvc IdentityService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			userID, err := identitySvc.CurrentUser(c.Request.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) {
					apiError(c, http.StatusUnauthorized, codeLoginRequired, "invalid or expired token")
					c.Abort()
					return
				}
				logger.Printf("identity lookup failed: %v", err)
				apiError(c, http.StatusBadGateway, codeInternal, "identity service unavailable")
				c.Abort()
				return
			}
			c.Set(actorContextKey, domain.UserActor(userID))
			c.Next()
			return
		}

		token := c.GetHeader(guestTokenHeader)
		if token == "" {
			token = uuid.NewString()
		}
		c.Header(guestTokenHeader, token)
		c.Set(actorContextKey, domain.GuestActor(token))
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

// requireUser returns the logged-in user id or ends the request with 401.
func requireUser(c *gin.Context) (int64, bool) {
	userID, ok := actorFrom(c).UserID()
	if !ok {
		apiError(c, http.StatusUnauthorized, codeLoginRequired, "login required")
		return 0, false
	}
	return userID, true
}
