package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/kv"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

type directoryState struct {
	admins  []models.AdminRecord
	session *models.SessionRecord
}

func (s directoryState) clone() directoryState {
	next := directoryState{admins: slices.Clone(s.admins)}
	if s.session != nil {
		sess := *s.session
		next.session = &sess
	}
	return next
}

func (s directoryState) adminIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.admins, func(a models.AdminRecord) bool { return a.ID == id })
}

func (s directoryState) superAdminCount() int {
	n := 0
	for _, a := range s.admins {
		if a.Role == identity.RoleSuperAdmin {
			n++
		}
	}
	return n
}

// loginTaken reports whether another account already answers to value as
// username or email
func (s directoryState) loginTaken(value string, self uuid.UUID) bool {
	folded := identity.FoldIdentifier(value)
	return slices.ContainsFunc(s.admins, func(a models.AdminRecord) bool {
		if a.ID == self {
			return false
		}
		return identity.FoldIdentifier(a.Username) == folded || identity.FoldIdentifier(a.Email) == folded
	})
}

func (s directoryState) checkUnique(a *identity.Admin) error {
	if s.loginTaken(a.Username, a.ID) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}
	if s.loginTaken(a.Email, a.ID) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Email already exists")
	}
	return nil
}

// KVAdminStore implements identity.AdminRepository and identity.SessionRepository
// on top of a kv.Store, with the same load-once, copy-then-swap scheme as
// KVCatalogStore.
//
// Store-level invariants: usernames and emails are unique under case folding
// (also across the two fields), exactly one superadmin exists once seeded,
// and the current session never outlives its admin's approval.
type KVAdminStore struct {
	store  kv.Store
	logger *zap.Logger

	mu    sync.RWMutex
	state directoryState
}

// NewKVAdminStore loads the admin documents from store
func NewKVAdminStore(ctx context.Context, store kv.Store, logger *zap.Logger) (*KVAdminStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var st directoryState
	if err := loadJSON(ctx, store, KeyAdmins, &st.admins); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, store, KeyAdminSession, &st.session); err != nil {
		return nil, err
	}

	logger.Info("Admin directory loaded",
		zap.Int("admins", len(st.admins)),
		zap.Bool("session", st.session != nil),
	)

	return &KVAdminStore{store: store, logger: logger, state: st}, nil
}

func (s *KVAdminStore) mutate(ctx context.Context, fn func(next *directoryState) (dirty []string, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	dirty, err := fn(&next)
	if err != nil {
		return err
	}

	ops := make([]kv.Op, 0, len(dirty))
	for _, key := range dirty {
		var op kv.Op
		switch key {
		case KeyAdmins:
			op, err = putJSON(key, nonNil(next.admins))
		case KeyAdminSession:
			if next.session == nil {
				op = kv.Del(key)
			} else {
				op, err = putJSON(key, next.session)
			}
		default:
			err = fmt.Errorf("unknown directory key %q", key)
		}
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil
	}
	if err := s.store.Apply(ctx, ops...); err != nil {
		s.logger.Error("Failed to persist admin directory", zap.Strings("keys", dirty), zap.Error(err))
		return fmt.Errorf("failed to persist admin directory: %w", err)
	}

	s.state = next
	return nil
}

// Create adds a new account
func (s *KVAdminStore) Create(ctx context.Context, admin *identity.Admin) error {
	return s.mutate(ctx, func(next *directoryState) ([]string, error) {
		if next.adminIndex(admin.ID) >= 0 {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Admin already exists")
		}
		if err := next.checkUnique(admin); err != nil {
			return nil, err
		}
		if admin.IsSuperAdmin() && next.superAdminCount() > 0 {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "A superadmin already exists")
		}
		next.admins = append(next.admins, models.AdminRecordFromDomain(admin))
		return []string{KeyAdmins}, nil
	})
}

// Update replaces an existing account. Suspending the admin who holds the
// current session also ends that session.
func (s *KVAdminStore) Update(ctx context.Context, admin *identity.Admin) error {
	return s.mutate(ctx, func(next *directoryState) ([]string, error) {
		idx := next.adminIndex(admin.ID)
		if idx < 0 {
			return nil, shared.ErrNotFound
		}
		if err := next.checkUnique(admin); err != nil {
			return nil, err
		}
		wasSuper := next.admins[idx].Role == identity.RoleSuperAdmin
		if wasSuper != admin.IsSuperAdmin() {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "There must be exactly one superadmin")
		}
		next.admins[idx] = models.AdminRecordFromDomain(admin)

		dirty := []string{KeyAdmins}
		if next.session != nil && next.session.Admin.ID == admin.ID && !admin.CanLogin() {
			next.session = nil
			dirty = append(dirty, KeyAdminSession)
		}
		return dirty, nil
	})
}

// Delete removes an account permanently. The superadmin cannot be deleted.
func (s *KVAdminStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, func(next *directoryState) ([]string, error) {
		idx := next.adminIndex(id)
		if idx < 0 {
			return nil, shared.ErrNotFound
		}
		if next.admins[idx].Role == identity.RoleSuperAdmin {
			return nil, shared.NewDomainError(shared.CodeForbidden, "The superadmin account cannot be deleted")
		}
		next.admins = slices.Delete(next.admins, idx, idx+1)

		dirty := []string{KeyAdmins}
		if next.session != nil && next.session.Admin.ID == id {
			next.session = nil
			dirty = append(dirty, KeyAdminSession)
		}
		return dirty, nil
	})
}

// FindByID finds an account by ID
func (s *KVAdminStore) FindByID(_ context.Context, id uuid.UUID) (*identity.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.state.adminIndex(id)
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.admins[idx].ToDomain(), nil
}

// FindByLogin finds the account whose username or email matches identifier
func (s *KVAdminStore) FindByLogin(_ context.Context, identifier string) (*identity.Admin, error) {
	folded := identity.FoldIdentifier(identifier)
	if folded == "" {
		return nil, shared.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.state.admins, func(a models.AdminRecord) bool {
		return identity.FoldIdentifier(a.Username) == folded || identity.FoldIdentifier(a.Email) == folded
	})
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.admins[idx].ToDomain(), nil
}

// FindSuperAdmin returns the bootstrap superadmin
func (s *KVAdminStore) FindSuperAdmin(_ context.Context) (*identity.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.state.admins, func(a models.AdminRecord) bool {
		return a.Role == identity.RoleSuperAdmin
	})
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.admins[idx].ToDomain(), nil
}

// FindAll returns accounts matching the filter in creation order
func (s *KVAdminStore) FindAll(_ context.Context, filter identity.AdminFilter) ([]identity.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := make([]identity.Admin, 0, len(s.state.admins))
	for i := range s.state.admins {
		a := s.state.admins[i].ToDomain()
		if filter.Matches(a) {
			admins = append(admins, *a)
		}
	}
	return admins, nil
}

// StartSession stamps the login on the stored account and replaces the
// current session. The stored status is checked again under the lock, and
// only the login and update times are taken from admin.
func (s *KVAdminStore) StartSession(ctx context.Context, admin *identity.Admin, session *identity.Session) error {
	return s.mutate(ctx, func(next *directoryState) ([]string, error) {
		idx := next.adminIndex(admin.ID)
		if idx < 0 {
			return nil, shared.ErrNotFound
		}
		stored := &next.admins[idx]
		if err := identity.LoginStatusError(stored.Status); err != nil {
			return nil, err
		}
		stored.LastLoginAt = admin.LastLoginAt
		stored.UpdatedAt = admin.UpdatedAt
		rec := models.SessionRecordFromDomain(session)
		next.session = &rec
		return []string{KeyAdmins, KeyAdminSession}, nil
	})
}

// CurrentSession returns the stored session, expired or not
func (s *KVAdminStore) CurrentSession(_ context.Context) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.session == nil {
		return nil, shared.ErrNotFound
	}
	return s.state.session.ToDomain(), nil
}

// ClearSession removes the current session
func (s *KVAdminStore) ClearSession(ctx context.Context) error {
	return s.mutate(ctx, func(next *directoryState) ([]string, error) {
		if next.session == nil {
			return nil, nil
		}
		next.session = nil
		return []string{KeyAdminSession}, nil
	})
}

// Ensure KVAdminStore implements the identity repositories
var (
	_ identity.AdminRepository   = (*KVAdminStore)(nil)
	_ identity.SessionRepository = (*KVAdminStore)(nil)
)
