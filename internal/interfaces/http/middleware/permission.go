package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission identity.Permission, cfg PermissionConfig) gin.HandlerFunc {
	return RequireAnyPermission(cfg, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(cfg PermissionConfig, permissions ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasAnyPermission(c, permissions...) {
			permissionDenied(c, cfg, permissions)
			return
		}
		c.Next()
	}
}

// RequireSelfOrPermission lets an admin act on their own account, identified
// by the :param path segment, and everyone else only with one of permissions
func RequireSelfOrPermission(param string, cfg PermissionConfig, permissions ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsSelf(c, param) || HasAnyPermission(c, permissions...) {
			c.Next()
			return
		}
		permissionDenied(c, cfg, permissions)
	}
}

// IsSelf reports whether the :param path segment is the authenticated admin
func IsSelf(c *gin.Context, param string) bool {
	target, err := uuid.Parse(c.Param(param))
	if err != nil {
		return false
	}
	self := GetAdminID(c)
	return self != uuid.Nil && self == target
}

// HasPermission checks the permission against the validated session, falling
// back to the token claims when no session was loaded
func HasPermission(c *gin.Context, permission identity.Permission) bool {
	if session := GetSession(c); session != nil {
		return session.HasPermission(permission)
	}
	if claims := GetJWTClaims(c); claims != nil {
		return claims.HasPermission(string(permission))
	}
	return false
}

// HasAnyPermission checks if the caller holds any of the permissions
func HasAnyPermission(c *gin.Context, permissions ...identity.Permission) bool {
	for _, p := range permissions {
		if HasPermission(c, p) {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the caller's session belongs to a superadmin
func IsSuperAdmin(c *gin.Context) bool {
	if session := GetSession(c); session != nil {
		return session.IsSuperAdmin()
	}
	if claims := GetJWTClaims(c); claims != nil {
		return claims.Role == string(identity.RoleSuperAdmin)
	}
	return false
}

func permissionDenied(c *gin.Context, cfg PermissionConfig, required []identity.Permission) {
	if cfg.Logger != nil {
		names := make([]string, len(required))
		for i, p := range required {
			names[i] = string(p)
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("admin_id", GetAdminID(c).String()),
			zap.Strings("required_permissions", names),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))
	}
	abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied: insufficient permissions")
}
