package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const teacherIDKey = "teacher_id"

// TeacherAuth enforces bearer JWT tokens signed with HS256 and stores the
// teacher id on the gin context.
func TeacherAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}
		c.Set(teacherIDKey, claims.TeacherID)
		c.Next()
	}
}

// TeacherID returns the id stored by TeacherAuth.
func TeacherID(c *gin.Context) string {
	return c.GetString(teacherIDKey)
}
