package identity

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func mustPlan(t *testing.T, id PlanID) SubscriptionPlan {
	t.Helper()
	p, ok := FindPlan(id)
	require.True(t, ok)
	return p
}

func newTestAdmin(t *testing.T, plan PlanID) *Admin {
	t.Helper()
	a, err := NewAdmin(Registration{
		Username: "Alice",
		Email:    "Alice@Example.com",
		Password: "password123",
		PIN:      "1234",
		Plan:     mustPlan(t, plan),
		Profile:  Profile{FirstName: "Alice", LastName: "Smith", Company: "Acme"},
	}, testNow)
	require.NoError(t, err)
	return a
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestNewAdmin(t *testing.T) {
	t.Run("starts pending with an active subscription", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)

		assert.Equal(t, "alice", a.Username)
		assert.Equal(t, "alice@example.com", a.Email)
		assert.Equal(t, RoleAdmin, a.Role)
		assert.Equal(t, AdminStatusPending, a.Status)
		assert.False(t, a.CanLogin())
		assert.Equal(t, PlanBasic, a.Subscription.Plan)
		assert.Equal(t, SubscriptionActive, a.Subscription.Status)
		assert.Equal(t, testNow.AddDate(0, 1, 0), a.Subscription.EndDate)
		assert.Equal(t, []string{"Product Management", "QR Code Generation", "Basic Analytics"}, a.Subscription.Features)
		assert.Nil(t, a.ApprovedAt)

		events := a.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeAdminRegistered, events[0].EventType())
	})

	t.Run("stores hashes not secrets", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)

		assert.NotEqual(t, "password123", a.PasswordHash)
		assert.NotEqual(t, "1234", a.PINHash)
		assert.True(t, a.VerifyPassword("password123"))
		assert.False(t, a.VerifyPassword("password124"))
		assert.True(t, a.VerifyPIN("1234"))
		assert.False(t, a.VerifyPIN("0000"))
	})

	t.Run("pin is optional", func(t *testing.T) {
		a, err := NewAdmin(Registration{
			Username: "bob", Email: "bob@example.com", Password: "password123",
			Plan: mustPlan(t, PlanPremium), Profile: Profile{FirstName: "Bob", LastName: "B"},
		}, testNow)
		require.NoError(t, err)
		assert.False(t, a.HasPIN())
		assert.False(t, a.VerifyPIN(""))
	})

	base := Registration{
		Username: "carol", Email: "carol@example.com", Password: "password123",
		Profile: Profile{FirstName: "Carol", LastName: "C"},
	}
	failures := []struct {
		name   string
		mutate func(r *Registration)
		code   string
	}{
		{"short username", func(r *Registration) { r.Username = "ab" }, "INVALID_USERNAME"},
		{"username with spaces", func(r *Registration) { r.Username = "a b c" }, "INVALID_USERNAME"},
		{"bad email", func(r *Registration) { r.Email = "carol" }, "INVALID_EMAIL"},
		{"short password", func(r *Registration) { r.Password = "short" }, "INVALID_PASSWORD"},
		{"three digit pin", func(r *Registration) { r.PIN = "123" }, "INVALID_PIN"},
		{"alpha pin", func(r *Registration) { r.PIN = "12a4" }, "INVALID_PIN"},
		{"missing last name", func(r *Registration) { r.Profile.LastName = " " }, "INVALID_PROFILE"},
		{"missing plan", func(r *Registration) { r.Plan = SubscriptionPlan{} }, "INVALID_PLAN"},
	}
	for _, tt := range failures {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			reg := base
			reg.Plan = mustPlan(t, PlanBasic)
			tt.mutate(&reg)
			_, err := NewAdmin(reg, testNow)
			assertCode(t, err, tt.code)
		})
	}
}

func TestNewSuperAdmin(t *testing.T) {
	a, err := NewSuperAdmin(Registration{
		Username: "superadmin", Email: "superadmin@warranty.com", Password: "super123", PIN: "0000",
		Plan:    mustPlan(t, PlanEnterprise),
		Profile: Profile{FirstName: "Super", LastName: "Admin", Company: "Warranty System"},
	}, 12, testNow)
	require.NoError(t, err)

	assert.True(t, a.IsSuperAdmin())
	assert.True(t, a.CanLogin())
	assert.Equal(t, testNow.AddDate(0, 12, 0), a.Subscription.EndDate)
	assert.True(t, a.VerifyPIN("0000"))
	assert.Empty(t, a.GetDomainEvents())
}

func TestAdmin_StatusTransitions(t *testing.T) {
	approver := uuid.New()
	later := testNow.Add(time.Hour)

	t.Run("approve from pending", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		a.ClearDomainEvents()

		require.NoError(t, a.Approve(approver, later))
		assert.Equal(t, AdminStatusApproved, a.Status)
		assert.True(t, a.CanLogin())
		require.NotNil(t, a.ApprovedAt)
		assert.Equal(t, later, *a.ApprovedAt)
		assert.Equal(t, approver, *a.ApprovedBy)

		events := a.GetDomainEvents()
		require.Len(t, events, 1)
		ev := events[0].(*AdminStatusChangedEvent)
		assert.Equal(t, AdminStatusPending, ev.From)
		assert.Equal(t, AdminStatusApproved, ev.To)
	})

	t.Run("approve twice fails", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		require.NoError(t, a.Approve(approver, later))
		assertCode(t, a.Approve(approver, later), shared.CodeInvalidState)
	})

	t.Run("suspend is one way", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		require.NoError(t, a.Approve(approver, later))
		require.NoError(t, a.Suspend(later))
		assert.Equal(t, AdminStatusSuspended, a.Status)
		assert.False(t, a.CanLogin())

		assertCode(t, a.Approve(approver, later), shared.CodeInvalidState)
		require.NoError(t, a.Suspend(later))
		assert.Equal(t, AdminStatusSuspended, a.Status)
	})

	t.Run("superadmin is protected", func(t *testing.T) {
		a := newTestAdmin(t, PlanEnterprise)
		a.Role = RoleSuperAdmin

		assertCode(t, a.Suspend(later), shared.CodeForbidden)
		assertCode(t, a.CanBeDeleted(), shared.CodeForbidden)
	})

	t.Run("regular admin can be deleted", func(t *testing.T) {
		assert.NoError(t, newTestAdmin(t, PlanBasic).CanBeDeleted())
	})
}

func TestAdmin_ChangeCredentials(t *testing.T) {
	later := testNow.Add(time.Hour)

	t.Run("keeps pin when not given", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		require.NoError(t, a.ChangeCredentials("newpassword1", nil, later))
		assert.True(t, a.VerifyPassword("newpassword1"))
		assert.False(t, a.VerifyPassword("password123"))
		assert.True(t, a.VerifyPIN("1234"))
	})

	t.Run("replaces pin", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		pin := "9876"
		require.NoError(t, a.ChangeCredentials("newpassword1", &pin, later))
		assert.True(t, a.VerifyPIN("9876"))
	})

	t.Run("empty pin removes it", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		empty := ""
		require.NoError(t, a.ChangeCredentials("newpassword1", &empty, later))
		assert.False(t, a.HasPIN())
	})

	t.Run("invalid input changes nothing", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		bad := "12"
		assertCode(t, a.ChangeCredentials("newpassword1", &bad, later), "INVALID_PIN")
		assert.True(t, a.VerifyPassword("password123"))
		assertCode(t, a.ChangeCredentials("short", nil, later), "INVALID_PASSWORD")
	})
}

func TestAdmin_UpdateProfile(t *testing.T) {
	a := newTestAdmin(t, PlanBasic)
	company := "Globex"
	email := "ALICE@globex.com"

	require.NoError(t, a.UpdateProfile(ProfileUpdate{Company: &company, Email: &email}, testNow))
	assert.Equal(t, "Globex", a.Profile.Company)
	assert.Equal(t, "alice@globex.com", a.Email)
	assert.Equal(t, "Alice", a.Profile.FirstName)
	assert.Equal(t, "Alice Smith", a.Profile.DisplayName())

	blank := ""
	assertCode(t, a.UpdateProfile(ProfileUpdate{FirstName: &blank}, testNow), "INVALID_PROFILE")
	assert.Equal(t, "Alice", a.Profile.FirstName)
}

func TestAdmin_AssignSubscription(t *testing.T) {
	a := newTestAdmin(t, PlanBasic)
	a.Subscription.Status = SubscriptionExpired
	later := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, a.AssignSubscription(mustPlan(t, PlanEnterprise), 3, later))
	assert.Equal(t, PlanEnterprise, a.Subscription.Plan)
	assert.Equal(t, SubscriptionActive, a.Subscription.Status)
	assert.Equal(t, later, a.Subscription.StartDate)
	assert.Equal(t, time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC), a.Subscription.EndDate)
	assert.Contains(t, a.Subscription.Features, "White Label")

	assertCode(t, a.AssignSubscription(mustPlan(t, PlanBasic), 0, later), "INVALID_DURATION")
}
