package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

// RequireRoles lets the request through only when the token role is listed.
// It must run after JWT.
func RequireRoles(roles ...models.TeacherRole) gin.HandlerFunc {
	allowed := make(map[models.TeacherRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentTeacher(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
