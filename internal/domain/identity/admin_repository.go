package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// AdminRepository defines the interface for admin persistence.
// Usernames and emails are unique under case folding.
type AdminRepository interface {
	// Create adds a new account; ErrAlreadyExists on a taken username or email
	Create(ctx context.Context, admin *Admin) error

	// Update replaces an existing account; ErrNotFound if it is gone
	Update(ctx context.Context, admin *Admin) error

	// Delete removes an account permanently
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Admin, error)

	// FindByLogin finds an account whose username or email matches identifier
	FindByLogin(ctx context.Context, identifier string) (*Admin, error)

	// FindSuperAdmin returns the bootstrap superadmin
	FindSuperAdmin(ctx context.Context) (*Admin, error)

	// FindAll returns accounts matching the filter in creation order
	FindAll(ctx context.Context, filter AdminFilter) ([]Admin, error)
}

// SessionRepository persists the single process-wide session
type SessionRepository interface {
	// StartSession stores the admin's login stamp and replaces the current
	// session in one atomic write
	StartSession(ctx context.Context, admin *Admin, session *Session) error

	// CurrentSession returns ErrNotFound when nobody is logged in
	CurrentSession(ctx context.Context) (*Session, error)

	// ClearSession logs out; clearing an empty slot is not an error
	ClearSession(ctx context.Context) error
}

// AdminFilter contains filter options for listing accounts
type AdminFilter struct {
	Status            *AdminStatus
	ExcludeSuperAdmin bool
}

// Matches reports whether the account passes the filter
func (f AdminFilter) Matches(a *Admin) bool {
	if f.ExcludeSuperAdmin && a.IsSuperAdmin() {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

// FoldIdentifier normalizes a username or email for comparison.
// A Caser is stateful, so one is built per call.
func FoldIdentifier(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
