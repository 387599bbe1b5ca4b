package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warrantyhub/backend/internal/domain/identity"
)

// RegisterAdminRequest is a self-service admin signup
type RegisterAdminRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Email           string `json:"email" binding:"required,email,max=200"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	PIN             string `json:"pin" binding:"omitempty,len=4,numeric"`
	Plan            string `json:"plan" binding:"omitempty,oneof=basic premium enterprise"`
	FirstName       string `json:"first_name" binding:"max=100"`
	LastName        string `json:"last_name" binding:"max=100"`
	Company         string `json:"company" binding:"max=200"`
	Phone           string `json:"phone" binding:"max=50"`
}

// LoginRequest authenticates by username or email. PIN is checked only when supplied.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	PIN      string `json:"pin"`
}

// LoginResponse carries the access token and the new session
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Session     SessionResponse `json:"session"`
}

// SessionResponse describes the current login
type SessionResponse struct {
	ID          uuid.UUID            `json:"id"`
	AdminID     uuid.UUID            `json:"admin_id"`
	Username    string               `json:"username"`
	Email       string               `json:"email"`
	DisplayName string               `json:"display_name"`
	Role        identity.Role        `json:"role"`
	Status      identity.AdminStatus `json:"status"`
	Plan        identity.PlanID      `json:"plan"`
	Permissions []string             `json:"permissions"`
	IssuedAt    time.Time            `json:"issued_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// LogoutRequest identifies the token being retired
type LogoutRequest struct {
	SessionID uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// Actor is the authenticated caller of an admin operation
type Actor struct {
	AdminID      uuid.UUID
	IsSuperAdmin bool
}

// UpdateProfileRequest is a partial update of an admin account
type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=200"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Company   *string `json:"company" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin superadmin"`
}

// ChangePasswordRequest replaces the password and optionally the PIN.
// An empty NewPIN removes the PIN.
type ChangePasswordRequest struct {
	NewPassword     string  `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
	NewPIN          *string `json:"new_pin" binding:"omitempty,max=4"`
}

// UpdateSubscriptionRequest moves an admin to a plan. DurationMonths defaults to 1.
type UpdateSubscriptionRequest struct {
	PlanID         string `json:"plan_id" binding:"required,oneof=basic premium enterprise"`
	DurationMonths *int   `json:"duration_months" binding:"omitempty,min=1,max=120"`
}

// SeedSuperAdminInput describes the bootstrap account
type SeedSuperAdminInput struct {
	Username           string
	Email              string
	Password           string
	PIN                string
	FirstName          string
	LastName           string
	Company            string
	SubscriptionMonths int
}

// SubscriptionResponse is an admin's plan assignment
type SubscriptionResponse struct {
	Plan      identity.PlanID             `json:"plan"`
	Status    identity.SubscriptionStatus `json:"status"`
	StartDate time.Time                   `json:"start_date"`
	EndDate   time.Time                   `json:"end_date"`
	Features  []string                    `json:"features"`
}

// AdminResponse represents an admin account in API responses.
// Password and PIN hashes are never exposed.
type AdminResponse struct {
	ID           uuid.UUID            `json:"id"`
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	Role         identity.Role        `json:"role"`
	Status       identity.AdminStatus `json:"status"`
	Subscription SubscriptionResponse `json:"subscription"`
	FirstName    string               `json:"first_name"`
	LastName     string               `json:"last_name"`
	Company      string               `json:"company"`
	Phone        string               `json:"phone"`
	HasPIN       bool                 `json:"has_pin"`
	ApprovedAt   *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy   *uuid.UUID           `json:"approved_by,omitempty"`
	LastLoginAt  *time.Time           `json:"last_login_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// PlanLimitsResponse holds per-resource caps; -1 is unlimited
type PlanLimitsResponse struct {
	Products   int `json:"products"`
	QRCodes    int `json:"qr_codes"`
	Warranties int `json:"warranties"`
}

// PlanResponse is an entry of the plan catalog
type PlanResponse struct {
	ID             identity.PlanID    `json:"id"`
	Name           string             `json:"name"`
	Price          decimal.Decimal    `json:"price"`
	DurationMonths int                `json:"duration_months"`
	Features       []string           `json:"features"`
	Limits         PlanLimitsResponse `json:"limits"`
}

// LimitCheckResponse reports whether one more resource may be created
type LimitCheckResponse struct {
	AdminID  uuid.UUID             `json:"admin_id"`
	Resource identity.ResourceType `json:"resource"`
	Current  int                   `json:"current"`
	Limit    int                   `json:"limit"`
	Allowed  bool                  `json:"allowed"`
}

// ToAdminResponse converts a domain Admin
func ToAdminResponse(a *identity.Admin) AdminResponse {
	return AdminResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		Status:   a.Status,
		Subscription: SubscriptionResponse{
			Plan:      a.Subscription.Plan,
			Status:    a.Subscription.Status,
			StartDate: a.Subscription.StartDate,
			EndDate:   a.Subscription.EndDate,
			Features:  a.Subscription.Features,
		},
		FirstName:   a.Profile.FirstName,
		LastName:    a.Profile.LastName,
		Company:     a.Profile.Company,
		Phone:       a.Profile.Phone,
		HasPIN:      a.HasPIN(),
		ApprovedAt:  a.ApprovedAt,
		ApprovedBy:  a.ApprovedBy,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ToAdminResponses converts a slice of domain Admins
func ToAdminResponses(admins []identity.Admin) []AdminResponse {
	responses := make([]AdminResponse, len(admins))
	for i := range admins {
		responses[i] = ToAdminResponse(&admins[i])
	}
	return responses
}

// ToSessionResponse converts a domain Session
func ToSessionResponse(s *identity.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		AdminID:     s.Admin.ID,
		Username:    s.Admin.Username,
		Email:       s.Admin.Email,
		DisplayName: s.Admin.Profile.DisplayName(),
		Role:        s.Admin.Role,
		Status:      s.Admin.Status,
		Plan:        s.Admin.Plan,
		Permissions: identity.PermissionStrings(s.Permissions),
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

// ToPlanResponse converts a catalog plan
func ToPlanResponse(p identity.SubscriptionPlan) PlanResponse {
	return PlanResponse{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		DurationMonths: p.DurationMonths,
		Features:       p.Features,
		Limits: PlanLimitsResponse{
			Products:   p.Limits.Products,
			QRCodes:    p.Limits.QRCodes,
			Warranties: p.Limits.Warranties,
		},
	}
}
