package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

func TestPermissionsFor(t *testing.T) {
	base := []Permission{PermDashboardView, PermProductsView, PermWarrantiesView}
	write := []Permission{PermProductsCreate, PermProductsEdit, PermQRCodesGenerate}

	t.Run("basic plan", func(t *testing.T) {
		perms := PermissionsFor(newTestAdmin(t, PlanBasic))
		assert.ElementsMatch(t, append(append([]Permission{}, base...), write...), perms)
		assert.NotContains(t, perms, PermAPIAccess)
	})

	t.Run("premium plan", func(t *testing.T) {
		perms := PermissionsFor(newTestAdmin(t, PlanPremium))
		assert.Subset(t, perms, write)
		assert.Contains(t, perms, PermAnalyticsAdvanced)
		assert.Contains(t, perms, PermBrandingCustom)
		assert.NotContains(t, perms, PermAPIAccess)
	})

	t.Run("enterprise plan", func(t *testing.T) {
		perms := PermissionsFor(newTestAdmin(t, PlanEnterprise))
		assert.Subset(t, perms, []Permission{PermAnalyticsAdvanced, PermBrandingCustom, PermAPIAccess, PermIntegrationsCustom})
		assert.Len(t, perms, 10)
	})

	t.Run("inactive subscription is read only", func(t *testing.T) {
		a := newTestAdmin(t, PlanEnterprise)
		a.Subscription.Status = SubscriptionSuspended
		assert.ElementsMatch(t, base, PermissionsFor(a))
	})

	t.Run("active subscription past its end date keeps write access", func(t *testing.T) {
		basic, _ := FindPlan(PlanBasic)
		a := newTestAdmin(t, PlanBasic)
		a.Subscription = NewSubscription(basic, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		require.True(t, testNow.After(a.Subscription.EndDate))

		perms := PermissionsFor(a)
		assert.Contains(t, perms, PermProductsCreate)
		assert.NotContains(t, perms, PermAPIAccess)
	})

	t.Run("superadmin gets the administrative set", func(t *testing.T) {
		a := newTestAdmin(t, PlanBasic)
		a.Role = RoleSuperAdmin
		a.Subscription.Status = SubscriptionExpired

		perms := PermissionsFor(a)
		assert.Subset(t, perms, base)
		assert.Subset(t, perms, []Permission{
			PermAdminsView, PermAdminsCreate, PermAdminsApprove, PermAdminsSuspend,
			PermAdminsDelete, PermAdminsEdit, PermSubscriptionsManage, PermSystemSettings, PermAnalyticsAdvanced,
		})
		assert.Len(t, perms, 12)
	})
}

func TestSession(t *testing.T) {
	a := newTestAdmin(t, PlanBasic)
	s := NewSession(a, testNow)

	assert.Equal(t, a.ID, s.Admin.ID)
	assert.Equal(t, testNow.Add(24*time.Hour), s.ExpiresAt)
	assert.True(t, s.HasPermission(PermProductsCreate))
	assert.False(t, s.HasPermission(PermAPIAccess))
	assert.False(t, s.IsSuperAdmin())

	assert.False(t, s.IsExpired(testNow.Add(24*time.Hour)))
	assert.True(t, s.IsExpired(testNow.Add(24*time.Hour+time.Second)))
	assert.NoError(t, s.Validate(testNow))
	assert.ErrorIs(t, s.Validate(testNow.Add(25*time.Hour)), shared.ErrSessionExpired)

	t.Run("permissions stay frozen after a downgrade", func(t *testing.T) {
		a.Subscription.Status = SubscriptionSuspended
		assert.True(t, s.HasPermission(PermProductsCreate))
	})
}
