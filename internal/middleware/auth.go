package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/auth"
	"cabbooking/internal/domain"
)

const (
	actorKey = "actor"
	roleKey  = "role"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's username and role in the gin context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required (Bearer <token>)"})
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorKey, claims.Subject)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles.
// Must run after Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role := Actor(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied for role " + string(role)})
	}
}

// Actor returns the authenticated username and role.
func Actor(c *gin.Context) (string, domain.Role) {
	username := c.GetString(actorKey)
	role, _ := c.Get(roleKey)
	r, _ := role.(domain.Role)
	return username, r
}

func tokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
