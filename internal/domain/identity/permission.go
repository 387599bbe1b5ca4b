package identity

import "slices"

// Permission is a capability string carried by a session
type Permission string

const (
	PermDashboardView       Permission = "dashboard.view"
	PermProductsView        Permission = "products.view"
	PermWarrantiesView      Permission = "warranties.view"
	PermAdminsView          Permission = "admins.view"
	PermAdminsCreate        Permission = "admins.create"
	PermAdminsApprove       Permission = "admins.approve"
	PermAdminsSuspend       Permission = "admins.suspend"
	PermAdminsDelete        Permission = "admins.delete"
	PermAdminsEdit          Permission = "admins.edit"
	PermSubscriptionsManage Permission = "subscriptions.manage"
	PermSystemSettings      Permission = "system.settings"
	PermAnalyticsAdvanced   Permission = "analytics.advanced"
	PermProductsCreate      Permission = "products.create"
	PermProductsEdit        Permission = "products.edit"
	PermQRCodesGenerate     Permission = "qrcodes.generate"
	PermBrandingCustom      Permission = "branding.custom"
	PermAPIAccess           Permission = "api.access"
	PermIntegrationsCustom  Permission = "integrations.custom"
)

var basePermissions = []Permission{PermDashboardView, PermProductsView, PermWarrantiesView}

var superAdminPermissions = []Permission{
	PermAdminsView,
	PermAdminsCreate,
	PermAdminsApprove,
	PermAdminsSuspend,
	PermAdminsDelete,
	PermAdminsEdit,
	PermSubscriptionsManage,
	PermSystemSettings,
	PermAnalyticsAdvanced,
}

// PermissionsFor derives the permission set of an admin.
// The result is frozen into the session at login.
func PermissionsFor(a *Admin) []Permission {
	perms := slices.Clone(basePermissions)
	if a.IsSuperAdmin() {
		return append(perms, superAdminPermissions...)
	}
	if !a.Subscription.IsActive() {
		return perms
	}

	perms = append(perms, PermProductsCreate, PermProductsEdit, PermQRCodesGenerate)
	switch a.Subscription.Plan {
	case PlanPremium:
		perms = append(perms, PermAnalyticsAdvanced, PermBrandingCustom)
	case PlanEnterprise:
		perms = append(perms, PermAnalyticsAdvanced, PermBrandingCustom, PermAPIAccess, PermIntegrationsCustom)
	}
	return perms
}

// PermissionStrings converts permissions to plain strings
func PermissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
