package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/interfaces/http/dto"
)

// RequirePermission allows the request when the caller's role grants perm
func RequirePermission(perm identity.Permission) gin.HandlerFunc {
	return RequireAnyPermission(perm)
}

// RequireAnyPermission allows the request when the caller's role grants at
// least one of perms
func RequireAnyPermission(perms ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetJWTRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		for _, p := range perms {
			if role.Can(p) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.ErrCodeForbidden, "Insufficient permissions", c.GetString(RequestIDKey)))
	}
}

// RequireRole allows only the listed roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetJWTRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.ErrCodeForbidden, "Insufficient permissions", c.GetString(RequestIDKey)))
	}
}

// HasPermission reports whether the caller's role grants perm
func HasPermission(c *gin.Context, perm identity.Permission) bool {
	return GetJWTRole(c).Can(perm)
}
