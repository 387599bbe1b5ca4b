package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/kv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	identity.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newAdminStore(t *testing.T, store kv.Store) *KVAdminStore {
	s, err := NewKVAdminStore(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	return s
}

func mustAdmin(t *testing.T, username, email string) *identity.Admin {
	plan, ok := identity.FindPlan(identity.PlanBasic)
	require.True(t, ok)
	a, err := identity.NewAdmin(identity.Registration{
		Username: username,
		Email:    email,
		Password: "password123",
		Plan:     plan,
		Profile:  identity.Profile{FirstName: "Test", LastName: "User"},
	}, testNow)
	require.NoError(t, err)
	return a
}

func mustSuperAdmin(t *testing.T) *identity.Admin {
	plan, ok := identity.FindPlan(identity.PlanEnterprise)
	require.True(t, ok)
	a, err := identity.NewSuperAdmin(identity.Registration{
		Username: "superadmin",
		Email:    "superadmin@warranty.com",
		Password: "super123",
		PIN:      "0000",
		Plan:     plan,
		Profile:  identity.Profile{FirstName: "Super", LastName: "Admin"},
	}, 12, testNow)
	require.NoError(t, err)
	return a
}

func TestKVAdminStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := newAdminStore(t, kv.NewMemoryStore())

	alice := mustAdmin(t, "alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, alice))

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username different case", "ALICE", "other@example.com"},
		{"same email different case", "bob", "Alice@Example.com"},
		{"padded username", "  alice ", "third@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(ctx, mustAdmin(t, tt.username, tt.email))
			assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		})
	}

	t.Run("update cannot steal another login", func(t *testing.T) {
		bob := mustAdmin(t, "bob", "bob@example.com")
		require.NoError(t, s.Create(ctx, bob))

		taken := "alice@example.com"
		require.NoError(t, bob.UpdateProfile(identity.ProfileUpdate{Email: &taken}, testNow))
		assert.ErrorIs(t, s.Update(ctx, bob), shared.ErrAlreadyExists)
	})
}

func TestKVAdminStore_FindByLogin(t *testing.T) {
	ctx := context.Background()
	s := newAdminStore(t, kv.NewMemoryStore())
	alice := mustAdmin(t, "alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, alice))

	for _, login := range []string{"alice", "ALICE", " alice@EXAMPLE.com "} {
		found, err := s.FindByLogin(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, alice.ID, found.ID)
	}

	_, err := s.FindByLogin(ctx, "carol")
	assert.True(t, shared.IsNotFound(err))
	_, err = s.FindByLogin(ctx, "   ")
	assert.True(t, shared.IsNotFound(err))
}

func TestKVAdminStore_SuperAdminProtection(t *testing.T) {
	ctx := context.Background()
	s := newAdminStore(t, kv.NewMemoryStore())
	root := mustSuperAdmin(t)
	require.NoError(t, s.Create(ctx, root))

	t.Run("only one superadmin", func(t *testing.T) {
		other := mustSuperAdmin(t)
		other.Username, other.Email = "root2", "root2@warranty.com"
		assert.ErrorIs(t, s.Create(ctx, other), shared.ErrAlreadyExists)
	})

	t.Run("cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete(ctx, root.ID), shared.ErrForbidden)
		found, err := s.FindSuperAdmin(ctx)
		require.NoError(t, err)
		assert.Equal(t, root.ID, found.ID)
	})

	t.Run("cannot be demoted", func(t *testing.T) {
		demoted, err := s.FindByID(ctx, root.ID)
		require.NoError(t, err)
		demoted.Role = identity.RoleAdmin
		assert.ErrorIs(t, s.Update(ctx, demoted), shared.ErrInvalidState)
	})
}

func TestKVAdminStore_FindAll(t *testing.T) {
	ctx := context.Background()
	s := newAdminStore(t, kv.NewMemoryStore())
	require.NoError(t, s.Create(ctx, mustSuperAdmin(t)))

	pending := mustAdmin(t, "pending", "pending@example.com")
	approved := mustAdmin(t, "approved", "approved@example.com")
	require.NoError(t, approved.Approve(uuid.New(), testNow))
	require.NoError(t, s.Create(ctx, pending))
	require.NoError(t, s.Create(ctx, approved))

	all, err := s.FindAll(ctx, identity.AdminFilter{ExcludeSuperAdmin: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pending.ID, all[0].ID)

	status := identity.AdminStatusPending
	onlyPending, err := s.FindAll(ctx, identity.AdminFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, "pending", onlyPending[0].Username)
}

func TestKVAdminStore_Session(t *testing.T) {
	ctx := context.Background()
	sqlStore := kv.NewSQLStore(setupKVTestDB(t))
	s := newAdminStore(t, sqlStore)

	alice := mustAdmin(t, "alice", "alice@example.com")
	require.NoError(t, alice.Approve(uuid.New(), testNow))
	require.NoError(t, s.Create(ctx, alice))

	_, err := s.CurrentSession(ctx)
	assert.True(t, shared.IsNotFound(err))

	loginAt := testNow.Add(time.Hour)
	alice.RecordLogin(loginAt)
	session := identity.NewSession(alice, loginAt)
	require.NoError(t, s.StartSession(ctx, alice, session))

	t.Run("session and login stamp survive a reload", func(t *testing.T) {
		reloaded := newAdminStore(t, sqlStore)

		current, err := reloaded.CurrentSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.ID, current.ID)
		assert.Equal(t, alice.ID, current.Admin.ID)
		assert.Equal(t, session.Permissions, current.Permissions)
		assert.True(t, session.ExpiresAt.Equal(current.ExpiresAt))

		stored, err := reloaded.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLoginAt)
		assert.True(t, loginAt.Equal(*stored.LastLoginAt))
		assert.True(t, stored.VerifyPassword("password123"))
	})

	t.Run("suspending the holder ends the session", func(t *testing.T) {
		require.NoError(t, alice.Suspend(loginAt))
		require.NoError(t, s.Update(ctx, alice))

		_, err := s.CurrentSession(ctx)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("clearing an empty slot is fine", func(t *testing.T) {
		assert.NoError(t, s.ClearSession(ctx))
	})
}

func TestKVAdminStore_StartSessionRechecksStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("suspension committed after the login read wins", func(t *testing.T) {
		s := newAdminStore(t, kv.NewMemoryStore())
		carol := mustAdmin(t, "carol", "carol@example.com")
		require.NoError(t, carol.Approve(uuid.New(), testNow))
		require.NoError(t, s.Create(ctx, carol))

		loginView, err := s.FindByLogin(ctx, "carol")
		require.NoError(t, err)

		suspended, err := s.FindByID(ctx, carol.ID)
		require.NoError(t, err)
		require.NoError(t, suspended.Suspend(testNow.Add(time.Minute)))
		require.NoError(t, s.Update(ctx, suspended))

		loginAt := testNow.Add(2 * time.Minute)
		loginView.RecordLogin(loginAt)
		err = s.StartSession(ctx, loginView, identity.NewSession(loginView, loginAt))
		assert.ErrorIs(t, err, identity.ErrAccountSuspended)

		stored, err := s.FindByID(ctx, carol.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.AdminStatusSuspended, stored.Status)
		assert.Nil(t, stored.LastLoginAt)
		_, err = s.CurrentSession(ctx)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("login keeps changes committed after the read", func(t *testing.T) {
		s := newAdminStore(t, kv.NewMemoryStore())
		dave := mustAdmin(t, "dave", "dave@example.com")
		require.NoError(t, dave.Approve(uuid.New(), testNow))
		require.NoError(t, s.Create(ctx, dave))

		loginView, err := s.FindByLogin(ctx, "dave")
		require.NoError(t, err)

		edited, err := s.FindByID(ctx, dave.ID)
		require.NoError(t, err)
		company := "Acme"
		require.NoError(t, edited.UpdateProfile(identity.ProfileUpdate{Company: &company}, testNow.Add(time.Minute)))
		require.NoError(t, s.Update(ctx, edited))

		loginAt := testNow.Add(2 * time.Minute)
		loginView.RecordLogin(loginAt)
		require.NoError(t, s.StartSession(ctx, loginView, identity.NewSession(loginView, loginAt)))

		stored, err := s.FindByID(ctx, dave.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", stored.Profile.Company)
		require.NotNil(t, stored.LastLoginAt)
		assert.True(t, loginAt.Equal(*stored.LastLoginAt))
	})
}

func TestKVAdminStore_DeleteEndsSession(t *testing.T) {
	ctx := context.Background()
	s := newAdminStore(t, kv.NewMemoryStore())

	bob := mustAdmin(t, "bob", "bob@example.com")
	require.NoError(t, bob.Approve(uuid.New(), testNow))
	require.NoError(t, s.Create(ctx, bob))
	require.NoError(t, s.StartSession(ctx, bob, identity.NewSession(bob, testNow)))

	require.NoError(t, s.Delete(ctx, bob.ID))

	_, err := s.CurrentSession(ctx)
	assert.True(t, shared.IsNotFound(err))
	_, err = s.FindByID(ctx, bob.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.True(t, shared.IsNotFound(s.Delete(ctx, bob.ID)))
}
