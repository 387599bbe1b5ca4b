package identity

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// SessionTTL is how long a login stays valid
const SessionTTL = 24 * time.Hour

// SessionAdmin is the admin snapshot captured at login
type SessionAdmin struct {
	ID               uuid.UUID
	Username         string
	Email            string
	Role             Role
	Status           AdminStatus
	Plan             PlanID
	SubscriptionEnds time.Time
	Profile          Profile
}

// Session is the single process-wide proof of a successful login
type Session struct {
	ID          uuid.UUID
	Admin       SessionAdmin
	Permissions []Permission
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// NewSession snapshots the admin and freezes its permissions at now
func NewSession(a *Admin, now time.Time) *Session {
	return &Session{
		ID: uuid.New(),
		Admin: SessionAdmin{
			ID:               a.ID,
			Username:         a.Username,
			Email:            a.Email,
			Role:             a.Role,
			Status:           a.Status,
			Plan:             a.Subscription.Plan,
			SubscriptionEnds: a.Subscription.EndDate,
			Profile:          a.Profile,
		},
		Permissions: PermissionsFor(a),
		IssuedAt:    now,
		ExpiresAt:   now.Add(SessionTTL),
	}
}

// IsExpired reports whether now is past the expiry
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// HasPermission checks the frozen permission set
func (s *Session) HasPermission(p Permission) bool {
	return slices.Contains(s.Permissions, p)
}

// IsSuperAdmin reports whether the session belongs to the superadmin
func (s *Session) IsSuperAdmin() bool {
	return s.Admin.Role == RoleSuperAdmin
}

// Validate returns ErrSessionExpired once the session has lapsed
func (s *Session) Validate(now time.Time) error {
	if s.IsExpired(now) {
		return shared.ErrSessionExpired
	}
	return nil
}
