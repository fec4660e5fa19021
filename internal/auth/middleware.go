package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextAccountID is the gin context key the middleware stores the
// authenticated account ID under.
const ContextAccountID = "account_id"

// LoginRequired authenticates the session token from the Authorization
// header or the "token" cookie and aborts with 401 otherwise. Handlers
// behind it read the account ID from the context, so the capability check
// is explicit composition rather than a cross-cutting wrapper.
func LoginRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else if cookie, err := c.Cookie("token"); err == nil {
			tokenString = cookie
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
			return
		}
		accountID, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ContextAccountID, accountID)
		c.Next()
	}
}

// AccountID extracts the authenticated account ID set by LoginRequired.
func AccountID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextAccountID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
