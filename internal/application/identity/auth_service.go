package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
	"github.com/warrantyhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Login failures. Status errors are only reported after the password matched.
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountPending     = identity.ErrAccountPending
	ErrAccountSuspended   = identity.ErrAccountSuspended
	ErrSessionInactive    = shared.NewDomainError(shared.CodeUnauthorized, "Session is no longer active")
)

// AuthService handles login, logout and the current session
type AuthService struct {
	admins     identity.AdminRepository
	sessions   identity.SessionRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	clock      shared.Clock
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist and events may be nil.
func NewAuthService(
	admins identity.AdminRepository,
	sessions identity.SessionRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:     admins,
		sessions:   sessions,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		clock:      clock,
		logger:     logger,
	}
}

// Login authenticates by username or email and replaces the current session
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer func() { telemetry.EndSpan(span, err) }()

	admin, err := s.admins.FindByLogin(ctx, req.Login)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Login failed, unknown account", zap.String("login", req.Login))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	span.SetAttributes(attribute.String(telemetry.SpanAttrAdminID, admin.ID.String()))

	if !admin.VerifyPassword(req.Password) {
		s.logger.Warn("Login failed, wrong password", zap.String("admin_id", admin.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if req.PIN != "" && !admin.VerifyPIN(req.PIN) {
		s.logger.Warn("Login failed, wrong PIN", zap.String("admin_id", admin.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if err := identity.LoginStatusError(admin.Status); err != nil {
		s.logger.Warn("Login rejected by account status",
			zap.String("admin_id", admin.ID.String()),
			zap.String("status", string(admin.Status)))
		return nil, err
	}

	now := s.clock.Now()
	admin.RecordLogin(now)
	session := identity.NewSession(admin, now)

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		SessionID:   session.ID,
		AdminID:     admin.ID,
		Username:    admin.Username,
		Role:        string(admin.Role),
		Permissions: identity.PermissionStrings(session.Permissions),
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	if err := s.sessions.StartSession(ctx, admin, session); err != nil {
		if errors.Is(err, ErrAccountPending) || errors.Is(err, ErrAccountSuspended) {
			s.logger.Warn("Login rejected, account changed during login",
				zap.String("admin_id", admin.ID.String()), zap.Error(err))
		}
		return nil, err
	}

	s.publish(ctx, identity.NewAdminLoggedInEvent(session))
	s.logger.Info("Admin logged in",
		zap.String("admin_id", admin.ID.String()),
		zap.String("session_id", session.ID.String()),
		zap.Int("permissions", len(session.Permissions)))

	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Session:     ToSessionResponse(session),
	}, nil
}

// Logout ends the session the token belongs to and revokes the token.
// Logging out of a session that was already replaced only revokes the token.
func (s *AuthService) Logout(ctx context.Context, req LogoutRequest) error {
	current, err := s.sessions.CurrentSession(ctx)
	switch {
	case err == nil:
		if current.ID == req.SessionID {
			if err := s.sessions.ClearSession(ctx); err != nil {
				return err
			}
		}
	case !shared.IsNotFound(err):
		return err
	}

	if s.blacklist != nil && req.TokenID != "" {
		ttl := req.ExpiresAt.Sub(s.clock.Now())
		if err := s.blacklist.AddToBlacklist(ctx, req.TokenID, ttl); err != nil {
			s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		}
	}

	s.logger.Info("Admin logged out", zap.String("session_id", req.SessionID.String()))
	return nil
}

// CurrentSession returns the active session. An expired session is cleared
// and reported as ErrSessionExpired.
func (s *AuthService) CurrentSession(ctx context.Context) (*SessionResponse, error) {
	session, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// ValidateSession checks that sessionID is still the active session
func (s *AuthService) ValidateSession(ctx context.Context, sessionID uuid.UUID) (*identity.Session, error) {
	session, err := s.activeSession(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrSessionInactive
		}
		return nil, err
	}
	if session.ID != sessionID {
		return nil, ErrSessionInactive
	}
	return session, nil
}

// HasPermission checks the permission against the current session.
// Without an active session the answer is false.
func (s *AuthService) HasPermission(ctx context.Context, permission identity.Permission) (bool, error) {
	session, err := s.activeSession(ctx)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsSessionExpired(err) {
			return false, nil
		}
		return false, err
	}
	return session.HasPermission(permission), nil
}

func (s *AuthService) activeSession(ctx context.Context) (*identity.Session, error) {
	session, err := s.sessions.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := session.Validate(s.clock.Now()); err != nil {
		if clearErr := s.sessions.ClearSession(ctx); clearErr != nil {
			s.logger.Error("Failed to clear expired session", zap.Error(clearErr))
		}
		s.logger.Info("Session expired", zap.String("session_id", session.ID.String()))
		return nil, err
	}
	return session, nil
}

func (s *AuthService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
