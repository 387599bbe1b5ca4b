package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role of an admin account
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// AdminStatus represents the approval state of an admin account.
// Transitions are one-way: pending -> approved -> suspended.
type AdminStatus string

const (
	AdminStatusPending   AdminStatus = "pending"   // Awaiting superadmin approval
	AdminStatusApproved  AdminStatus = "approved"  // May log in
	AdminStatusSuspended AdminStatus = "suspended" // Locked out, no way back
)

// PasswordHashCost is the bcrypt cost for passwords and PINs
var PasswordHashCost = 12

// Login rejections by account status
var (
	ErrAccountPending   = shared.NewDomainError("ACCOUNT_PENDING", "Account is pending approval")
	ErrAccountSuspended = shared.NewDomainError("ACCOUNT_SUSPENDED", "Account has been suspended")
)

// LoginStatusError returns the rejection for an account in status, or nil
// when the account may log in
func LoginStatusError(status AdminStatus) error {
	switch status {
	case AdminStatusApproved:
		return nil
	case AdminStatusPending:
		return ErrAccountPending
	default:
		return ErrAccountSuspended
	}
}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	pinRegex      = regexp.MustCompile(`^[0-9]{4}$`)
)

// Profile holds the personal details of an admin
type Profile struct {
	FirstName string
	LastName  string
	Company   string
	Phone     string
}

// DisplayName joins first and last name
func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Admin is an operator account. It is the aggregate root for the admin directory.
type Admin struct {
	shared.BaseAggregateRoot
	Username     string
	Email        string
	PasswordHash string
	PINHash      string
	Role         Role
	Status       AdminStatus
	Subscription Subscription
	Profile      Profile
	ApprovedAt   *time.Time
	ApprovedBy   *uuid.UUID
	LastLoginAt  *time.Time
}

// Registration carries the fields of a self-service signup
type Registration struct {
	Username string
	Email    string
	Password string
	PIN      string
	Plan     SubscriptionPlan
	Profile  Profile
}

// NewAdmin creates a pending admin with an active subscription on the chosen plan.
// The role is always admin; only the bootstrap account is a superadmin.
func NewAdmin(reg Registration, now time.Time) (*Admin, error) {
	a, err := newAccount(reg, RoleAdmin, AdminStatusPending, now)
	if err != nil {
		return nil, err
	}
	a.AddDomainEvent(NewAdminRegisteredEvent(a))
	return a, nil
}

// NewSuperAdmin creates the approved bootstrap superadmin account
func NewSuperAdmin(reg Registration, subscriptionMonths int, now time.Time) (*Admin, error) {
	a, err := newAccount(reg, RoleSuperAdmin, AdminStatusApproved, now)
	if err != nil {
		return nil, err
	}
	a.Subscription = NewSubscription(reg.Plan, subscriptionMonths, now)
	return a, nil
}

func newAccount(reg Registration, role Role, status AdminStatus, now time.Time) (*Admin, error) {
	username := strings.ToLower(strings.TrimSpace(reg.Username))
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(reg.Password); err != nil {
		return nil, err
	}
	profile, err := normalizeProfile(reg.Profile)
	if err != nil {
		return nil, err
	}
	if reg.Plan.ID == "" {
		return nil, shared.NewDomainError("INVALID_PLAN", "Subscription plan is required")
	}

	passwordHash, err := hashSecret(reg.Password)
	if err != nil {
		return nil, err
	}
	pinHash := ""
	if reg.PIN != "" {
		if err := validatePIN(reg.PIN); err != nil {
			return nil, err
		}
		if pinHash, err = hashSecret(reg.PIN); err != nil {
			return nil, err
		}
	}

	return &Admin{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		PINHash:           pinHash,
		Role:              role,
		Status:            status,
		Subscription:      NewSubscription(reg.Plan, reg.Plan.DurationMonths, now),
		Profile:           profile,
	}, nil
}

// IsSuperAdmin reports whether the account is the protected superadmin
func (a *Admin) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// CanLogin reports whether the account is approved
func (a *Admin) CanLogin() bool {
	return LoginStatusError(a.Status) == nil
}

// VerifyPassword verifies if the provided password matches
func (a *Admin) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// VerifyPIN verifies the PIN. An account without a PIN never matches.
func (a *Admin) VerifyPIN(pin string) bool {
	if a.PINHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PINHash), []byte(pin)) == nil
}

// HasPIN reports whether a PIN is set
func (a *Admin) HasPIN() bool {
	return a.PINHash != ""
}

// Approve moves a pending account to approved
func (a *Admin) Approve(approverID uuid.UUID, now time.Time) error {
	if a.Status != AdminStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Only pending accounts can be approved")
	}
	a.Status = AdminStatusApproved
	a.ApprovedAt = &now
	a.ApprovedBy = &approverID
	a.Touch(now)
	a.IncrementVersion()

	a.AddDomainEvent(NewAdminStatusChangedEvent(a, AdminStatusPending))
	return nil
}

// Suspend locks the account out. The superadmin cannot be suspended.
func (a *Admin) Suspend(now time.Time) error {
	if a.IsSuperAdmin() {
		return shared.NewDomainError(shared.CodeForbidden, "The superadmin account cannot be suspended")
	}
	if a.Status == AdminStatusSuspended {
		return nil
	}
	from := a.Status
	a.Status = AdminStatusSuspended
	a.Touch(now)
	a.IncrementVersion()

	a.AddDomainEvent(NewAdminStatusChangedEvent(a, from))
	return nil
}

// CanBeDeleted returns an error for the protected superadmin
func (a *Admin) CanBeDeleted() error {
	if a.IsSuperAdmin() {
		return shared.NewDomainError(shared.CodeForbidden, "The superadmin account cannot be deleted")
	}
	return nil
}

// RecordLogin stamps the last successful login
func (a *Admin) RecordLogin(now time.Time) {
	a.LastLoginAt = &now
	a.Touch(now)
}

// ChangeCredentials replaces the password and, when newPIN is non-nil, the PIN.
// An empty PIN removes it.
func (a *Admin) ChangeCredentials(newPassword string, newPIN *string, now time.Time) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashSecret(newPassword)
	if err != nil {
		return err
	}

	pinHash := a.PINHash
	if newPIN != nil {
		pinHash = ""
		if *newPIN != "" {
			if err := validatePIN(*newPIN); err != nil {
				return err
			}
			if pinHash, err = hashSecret(*newPIN); err != nil {
				return err
			}
		}
	}

	a.PasswordHash = passwordHash
	a.PINHash = pinHash
	a.Touch(now)
	a.IncrementVersion()
	return nil
}

// ProfileUpdate is a partial update of the editable account fields
type ProfileUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Company   *string
	Phone     *string
}

// UpdateProfile applies a partial update. Identity, role and approval fields
// are not reachable through it.
func (a *Admin) UpdateProfile(update ProfileUpdate, now time.Time) error {
	username, email, profile := a.Username, a.Email, a.Profile
	if update.Username != nil {
		username = strings.ToLower(strings.TrimSpace(*update.Username))
		if err := validateUsername(username); err != nil {
			return err
		}
	}
	if update.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*update.Email))
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if update.FirstName != nil {
		profile.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		profile.LastName = *update.LastName
	}
	if update.Company != nil {
		profile.Company = *update.Company
	}
	if update.Phone != nil {
		profile.Phone = *update.Phone
	}
	profile, err := normalizeProfile(profile)
	if err != nil {
		return err
	}

	a.Username = username
	a.Email = email
	a.Profile = profile
	a.Touch(now)
	a.IncrementVersion()
	return nil
}

// AssignSubscription puts the account on plan for months, starting now
func (a *Admin) AssignSubscription(plan SubscriptionPlan, months int, now time.Time) error {
	if months <= 0 {
		return shared.NewDomainError("INVALID_DURATION", "Subscription duration must be at least one month")
	}
	a.Subscription = NewSubscription(plan, months, now)
	a.Touch(now)
	a.IncrementVersion()

	a.AddDomainEvent(NewSubscriptionChangedEvent(a))
	return nil
}

func normalizeProfile(p Profile) (Profile, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Company = strings.TrimSpace(p.Company)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.FirstName == "" || p.LastName == "" {
		return p, shared.NewDomainError("INVALID_PROFILE", "First and last name are required")
	}
	if len(p.FirstName) > 100 || len(p.LastName) > 100 || len(p.Company) > 200 {
		return p, shared.NewDomainError("INVALID_PROFILE", "Profile field is too long")
	}
	if len(p.Phone) > 50 {
		return p, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	return p, nil
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func validatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return shared.NewDomainError("INVALID_PIN", "PIN must be exactly 4 digits")
	}
	return nil
}

func hashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), PasswordHashCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}
