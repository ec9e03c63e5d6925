package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/session"
)

const sessionCookie = "storefront_session"

const entryCtxKey = "sessionEntry"

// sessionMiddleware resolves the browser session from its cookie, creating
// a fresh one (and setting the cookie) when none exists yet.
func sessionMiddleware(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(sessionCookie)
		entry := m.GetOrCreate(id)
		if entry.ID != id {
			c.SetCookie(sessionCookie, entry.ID, 0, "/", "", false, true)
		}
		c.Set(entryCtxKey, entry)
		c.Next()
	}
}

func sessionEntry(c *gin.Context) *session.Entry {
	v, ok := c.Get(entryCtxKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "session not resolved"})
		return nil
	}
	return v.(*session.Entry)
}
