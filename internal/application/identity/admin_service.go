package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Admin directory failures
var (
	ErrPasswordMismatch     = shared.NewDomainError(shared.CodeValidationFailed, "Passwords do not match")
	ErrRoleChangeNotAllowed = shared.NewDomainError(shared.CodeForbidden, "Roles are fixed: the superadmin role cannot be granted or removed")
)

// AdminService manages the admin directory: signup, approval, suspension,
// profiles and subscriptions
type AdminService struct {
	admins    identity.AdminRepository
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewAdminService creates a new AdminService. blacklist and events may be nil.
func NewAdminService(
	admins identity.AdminRepository,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		admins:    admins,
		blacklist: blacklist,
		events:    events,
		clock:     clock,
		logger:    logger,
	}
}

// SeedSuperAdmin creates the bootstrap superadmin unless one exists.
// The boolean reports whether an account was created.
func (s *AdminService) SeedSuperAdmin(ctx context.Context, input SeedSuperAdminInput) (*AdminResponse, bool, error) {
	now := s.clock.Now()
	existing, err := s.admins.FindSuperAdmin(ctx)
	if err == nil {
		resp := ToAdminResponse(existing)
		return &resp, false, nil
	}
	if !shared.IsNotFound(err) {
		return nil, false, err
	}

	plan, _ := identity.FindPlan(identity.PlanEnterprise)
	months := input.SubscriptionMonths
	if months <= 0 {
		months = 12
	}
	admin, err := identity.NewSuperAdmin(identity.Registration{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		PIN:      input.PIN,
		Plan:     plan,
		Profile: identity.Profile{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Company:   input.Company,
		},
	}, months, now)
	if err != nil {
		return nil, false, fmt.Errorf("invalid superadmin seed: %w", err)
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, false, err
	}

	s.logger.Info("Superadmin seeded",
		zap.String("admin_id", admin.ID.String()),
		zap.String("username", admin.Username))
	resp := ToAdminResponse(admin)
	return &resp, true, nil
}

// Register creates a pending admin account awaiting approval
func (s *AdminService) Register(ctx context.Context, req RegisterAdminRequest) (*AdminResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	planID := identity.PlanID(req.Plan)
	if planID == "" {
		planID = identity.PlanBasic
	}
	plan, ok := identity.FindPlan(planID)
	if !ok {
		return nil, shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown subscription plan %q", req.Plan))
	}

	now := s.clock.Now()
	admin, err := identity.NewAdmin(identity.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		PIN:      req.PIN,
		Plan:     plan,
		Profile: identity.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Company:   req.Company,
			Phone:     req.Phone,
		},
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		if shared.IsConflict(err) {
			s.logger.Warn("Registration rejected, login already taken",
				zap.String("username", admin.Username),
				zap.String("email", admin.Email))
		}
		return nil, err
	}

	s.publish(ctx, admin)
	s.logger.Info("Admin registered",
		zap.String("admin_id", admin.ID.String()),
		zap.String("username", admin.Username),
		zap.String("plan", string(plan.ID)))

	resp := ToAdminResponse(admin)
	return &resp, nil
}

// GetByID returns one account
func (s *AdminService) GetByID(ctx context.Context, id uuid.UUID) (*AdminResponse, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAdminResponse(admin)
	return &resp, nil
}

// List returns every account except the superadmin
func (s *AdminService) List(ctx context.Context) ([]AdminResponse, error) {
	admins, err := s.admins.FindAll(ctx, identity.AdminFilter{ExcludeSuperAdmin: true})
	if err != nil {
		return nil, err
	}
	return ToAdminResponses(admins), nil
}

// ListPending returns accounts awaiting approval
func (s *AdminService) ListPending(ctx context.Context) ([]AdminResponse, error) {
	status := identity.AdminStatusPending
	admins, err := s.admins.FindAll(ctx, identity.AdminFilter{Status: &status})
	if err != nil {
		return nil, err
	}
	return ToAdminResponses(admins), nil
}

// Approve moves a pending account to approved
func (s *AdminService) Approve(ctx context.Context, id, approverID uuid.UUID) (*AdminResponse, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := admin.Approve(approverID, now); err != nil {
		s.logger.Warn("Approval rejected",
			zap.String("admin_id", id.String()),
			zap.String("status", string(admin.Status)))
		return nil, err
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}

	s.publish(ctx, admin)
	s.logger.Info("Admin approved",
		zap.String("admin_id", id.String()),
		zap.String("approved_by", approverID.String()))

	resp := ToAdminResponse(admin)
	return &resp, nil
}

// Suspend locks an account out and revokes its tokens
func (s *AdminService) Suspend(ctx context.Context, id uuid.UUID) (*AdminResponse, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := admin.Suspend(now); err != nil {
		s.logger.Warn("Suspension rejected", zap.String("admin_id", id.String()), zap.Error(err))
		return nil, err
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}

	s.revokeTokens(ctx, id)
	s.publish(ctx, admin)
	s.logger.Info("Admin suspended", zap.String("admin_id", id.String()))

	resp := ToAdminResponse(admin)
	return &resp, nil
}

// Delete removes an account permanently and revokes its tokens
func (s *AdminService) Delete(ctx context.Context, id uuid.UUID) error {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := admin.CanBeDeleted(); err != nil {
		s.logger.Warn("Deletion rejected", zap.String("admin_id", id.String()), zap.Error(err))
		return err
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return err
	}

	s.revokeTokens(ctx, id)
	admin.Touch(s.clock.Now())
	s.publishEvents(ctx, identity.NewAdminDeletedEvent(admin))
	s.logger.Info("Admin deleted",
		zap.String("admin_id", id.String()),
		zap.String("username", admin.Username))
	return nil
}

// UpdateProfile applies a partial update. A role change from a regular actor
// is ignored. From the superadmin it is rejected, because the directory holds
// exactly one superadmin and no promotion or demotion path exists.
func (s *AdminService) UpdateProfile(ctx context.Context, actor Actor, id uuid.UUID, req UpdateProfileRequest) (*AdminResponse, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && identity.Role(*req.Role) != admin.Role {
		if actor.IsSuperAdmin {
			s.logger.Warn("Role change rejected",
				zap.String("admin_id", id.String()),
				zap.String("role", *req.Role))
			return nil, ErrRoleChangeNotAllowed
		}
		s.logger.Warn("Role change ignored, actor is not the superadmin",
			zap.String("admin_id", id.String()),
			zap.String("actor_id", actor.AdminID.String()))
	}

	now := s.clock.Now()
	if err := admin.UpdateProfile(identity.ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
	}, now); err != nil {
		return nil, err
	}

	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin profile updated",
		zap.String("admin_id", id.String()),
		zap.String("actor_id", actor.AdminID.String()))
	resp := ToAdminResponse(admin)
	return &resp, nil
}

// ChangePassword replaces the password and optionally the PIN
func (s *AdminService) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := admin.ChangeCredentials(req.NewPassword, req.NewPIN, s.clock.Now()); err != nil {
		return err
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("Admin credentials changed",
		zap.String("admin_id", id.String()),
		zap.Bool("pin_changed", req.NewPIN != nil))
	return nil
}

// UpdateSubscription starts a fresh subscription on the plan
func (s *AdminService) UpdateSubscription(ctx context.Context, id uuid.UUID, req UpdateSubscriptionRequest) (*AdminResponse, error) {
	plan, ok := identity.FindPlan(identity.PlanID(req.PlanID))
	if !ok {
		return nil, shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown subscription plan %q", req.PlanID))
	}
	months := 1
	if req.DurationMonths != nil {
		months = *req.DurationMonths
	}

	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := admin.AssignSubscription(plan, months, now); err != nil {
		return nil, err
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, err
	}

	s.publish(ctx, admin)
	s.logger.Info("Subscription updated",
		zap.String("admin_id", id.String()),
		zap.String("plan", string(plan.ID)),
		zap.Int("months", months))

	resp := ToAdminResponse(admin)
	return &resp, nil
}

// CheckSubscriptionLimits reports whether the admin may create one more
// resource given the current count. It requires an active subscription.
func (s *AdminService) CheckSubscriptionLimits(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current int) (*LimitCheckResponse, error) {
	switch resource {
	case identity.ResourceProducts, identity.ResourceQRCodes, identity.ResourceWarranties:
	default:
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown resource type %q", resource))
	}
	if current < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Current count cannot be negative")
	}

	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	plan, ok := identity.FindPlan(admin.Subscription.Plan)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Admin has no known subscription plan")
	}

	return &LimitCheckResponse{
		AdminID:  adminID,
		Resource: resource,
		Current:  current,
		Limit:    plan.GetLimit(resource),
		Allowed:  admin.Subscription.IsActive() && plan.Allows(resource, current),
	}, nil
}

// EnsureWithinLimit fails with a forbidden error when the admin may not
// create count more resources on top of current
func (s *AdminService) EnsureWithinLimit(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current, count int) error {
	if count < 1 {
		count = 1
	}
	check, err := s.CheckSubscriptionLimits(ctx, adminID, resource, current+count-1)
	if err != nil {
		return err
	}
	if !check.Allowed {
		s.logger.Warn("Subscription limit reached",
			zap.String("admin_id", adminID.String()),
			zap.String("resource", string(resource)),
			zap.Int("current", current),
			zap.Int("requested", count),
			zap.Int("limit", check.Limit))
		return shared.NewDomainError(shared.CodeForbidden,
			fmt.Sprintf("Subscription limit reached for %s", resource))
	}
	return nil
}

// Plans returns the subscription plan catalog
func (s *AdminService) Plans() []PlanResponse {
	plans := identity.Plans()
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = ToPlanResponse(p)
	}
	return out
}

func (s *AdminService) revokeTokens(ctx context.Context, id uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.InvalidateAdminTokens(ctx, id.String(), identity.SessionTTL); err != nil {
		s.logger.Error("Failed to revoke admin tokens",
			zap.String("admin_id", id.String()),
			zap.Error(err))
	}
}

func (s *AdminService) publish(ctx context.Context, admin *identity.Admin) {
	s.publishEvents(ctx, admin.GetDomainEvents()...)
	admin.ClearDomainEvents()
}

func (s *AdminService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
