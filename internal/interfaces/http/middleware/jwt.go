package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
	"github.com/warrantyhub/backend/internal/infrastructure/logger"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AdminIDKey    = "admin_id"
	SessionIDKey  = "session_id"
	SessionKey    = "session"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// SessionValidator confirms that a token's session is still the current one
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID uuid.UUID) (*identity.Session, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// Sessions is optional. Without it the token alone authenticates.
	Sessions SessionValidator
	Logger   *zap.Logger
}

// JWTAuth authenticates the bearer token, rejects revoked tokens and tokens
// whose session has been replaced or has expired, and exposes the claims
// and session to downstream handlers
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			authFailed(c, log, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			authFailed(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			authFailed(c, log, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			authFailed(c, log, err, "Token validation failed")
			return
		}
		adminID, err := claims.GetAdminUUID()
		if err != nil {
			authFailed(c, log, auth.ErrInvalidClaims, "Malformed admin id")
			return
		}
		sessionID, err := claims.GetSessionUUID()
		if err != nil {
			authFailed(c, log, auth.ErrInvalidClaims, "Malformed session id")
			return
		}

		ctx := c.Request.Context()
		if cfg.TokenBlacklist != nil && isRevoked(ctx, cfg.TokenBlacklist, claims, log) {
			authFailed(c, log, auth.ErrTokenBlacklisted, "Token has been revoked")
			return
		}

		if cfg.Sessions != nil {
			session, err := cfg.Sessions.ValidateSession(ctx, sessionID)
			if err != nil {
				var domainErr *shared.DomainError
				if !errors.As(err, &domainErr) {
					log.Error("Session validation failed", zap.Error(err))
					abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred")
					return
				}
				authFailed(c, log, err, domainErr.Message)
				return
			}
			c.Set(SessionKey, session)
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(AdminIDKey, adminID)
		c.Set(SessionIDKey, sessionID)
		c.Request = c.Request.WithContext(logger.WithAdmin(ctx, claims.AdminID, claims.SessionID))

		log.Debug("JWT authentication successful",
			zap.String("admin_id", claims.AdminID),
			zap.String("session_id", claims.SessionID),
			zap.String("username", claims.Username))

		c.Next()
	}
}

// isRevoked fails open: a blacklist outage must not lock every admin out
func isRevoked(ctx context.Context, blacklist auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) bool {
	if claims.ID != "" {
		revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return true
		}
	}

	invalidated, err := blacklist.IsAdminTokenInvalidated(ctx, claims.AdminID, claims.GetIssuedAtTime())
	if err != nil {
		log.Error("Failed to check admin token invalidation", zap.String("admin_id", claims.AdminID), zap.Error(err))
		return false
	}
	return invalidated
}

func authFailed(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("Authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path))

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, msg = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSessionID), errors.Is(err, auth.ErrMissingAdminID):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	case shared.IsSessionExpired(err):
		code, msg = shared.CodeSessionExpired, "Session has expired"
	default:
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			msg = domainErr.Message
		}
	}
	abortWithError(c, http.StatusUnauthorized, code, msg)
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetAdminID returns the authenticated admin, or uuid.Nil
func GetAdminID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(AdminIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetSessionID returns the session the token belongs to, or uuid.Nil
func GetSessionID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(SessionIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetSession returns the validated session, or nil when no SessionValidator is configured
func GetSession(c *gin.Context) *identity.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*identity.Session); ok {
			return s
		}
	}
	return nil
}
