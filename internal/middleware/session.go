package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CartSessionHeader = "X-Cart-Session"

// CartSession identifies the visitor's cart. An explicit header wins over
// the cookie; a visitor with neither gets a fresh session cookie.
func CartSession(cookieName string, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := c.GetHeader(CartSessionHeader)
		if session == "" {
			session, _ = c.Cookie(cookieName)
		}
		if _, err := uuid.Parse(session); err != nil {
			session = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, session, int(ttl.Seconds()), "/", "", secure, true)
		}
		c.Header(CartSessionHeader, session)
		c.Set("cartSession", session)
		c.Next()
	}
}

func GetCartSession(c *gin.Context) string {
	s, _ := c.Get("cartSession")
	session, _ := s.(string)
	return session
}
