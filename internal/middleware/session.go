package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-roster/internal/session"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
	"github.com/noah-isme/tuition-roster/pkg/response"
)

// ContextHolderKey is the gin context key storing the request's session holder.
const ContextHolderKey = "sessionHolder"

// Session requires a token addressing a live session slot. The token is read
// from the Authorization bearer header, then from the session cookie.
func Session(manager *session.Manager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		holder, err := manager.Resume(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextHolderKey, holder)
		c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), holder.Current()))
		c.Next()
	}
}

// CurrentHolder returns the holder attached by Session.
func CurrentHolder(c *gin.Context) *session.Holder {
	if value, ok := c.Get(ContextHolderKey); ok {
		if holder, ok := value.(*session.Holder); ok {
			return holder
		}
	}
	return nil
}

func tokenFrom(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie
}
