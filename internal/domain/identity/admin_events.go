package identity

import "github.com/warrantyhub/backend/internal/domain/shared"

// Aggregate type constant for Admin
const AggregateTypeAdmin = "Admin"

// Admin domain event types
const (
	EventTypeAdminRegistered     = "AdminRegistered"
	EventTypeAdminStatusChanged  = "AdminStatusChanged"
	EventTypeAdminDeleted        = "AdminDeleted"
	EventTypeSubscriptionChanged = "AdminSubscriptionChanged"
	EventTypeAdminLoggedIn       = "AdminLoggedIn"
)

// AdminRegisteredEvent is published when an account signs up
type AdminRegisteredEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Email    string `json:"email"`
	Plan     PlanID `json:"plan"`
}

// NewAdminRegisteredEvent creates a new AdminRegisteredEvent
func NewAdminRegisteredEvent(a *Admin) *AdminRegisteredEvent {
	return &AdminRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminRegistered, AggregateTypeAdmin, a.ID, a.CreatedAt),
		Username:        a.Username,
		Email:           a.Email,
		Plan:            a.Subscription.Plan,
	}
}

// AdminStatusChangedEvent is published on approval or suspension
type AdminStatusChangedEvent struct {
	shared.BaseDomainEvent
	From AdminStatus `json:"from"`
	To   AdminStatus `json:"to"`
}

// NewAdminStatusChangedEvent creates a new AdminStatusChangedEvent
func NewAdminStatusChangedEvent(a *Admin, from AdminStatus) *AdminStatusChangedEvent {
	return &AdminStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminStatusChanged, AggregateTypeAdmin, a.ID, a.UpdatedAt),
		From:            from,
		To:              a.Status,
	}
}

// AdminDeletedEvent is published when an account is removed
type AdminDeletedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewAdminDeletedEvent creates a new AdminDeletedEvent
func NewAdminDeletedEvent(a *Admin) *AdminDeletedEvent {
	return &AdminDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminDeleted, AggregateTypeAdmin, a.ID, a.UpdatedAt),
		Username:        a.Username,
	}
}

// SubscriptionChangedEvent is published when a plan is assigned
type SubscriptionChangedEvent struct {
	shared.BaseDomainEvent
	Plan   PlanID             `json:"plan"`
	Status SubscriptionStatus `json:"status"`
}

// NewSubscriptionChangedEvent creates a new SubscriptionChangedEvent
func NewSubscriptionChangedEvent(a *Admin) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionChanged, AggregateTypeAdmin, a.ID, a.UpdatedAt),
		Plan:            a.Subscription.Plan,
		Status:          a.Subscription.Status,
	}
}

// AdminLoggedInEvent is published after a successful login
type AdminLoggedInEvent struct {
	shared.BaseDomainEvent
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
}

// NewAdminLoggedInEvent creates a new AdminLoggedInEvent
func NewAdminLoggedInEvent(s *Session) *AdminLoggedInEvent {
	return &AdminLoggedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdminLoggedIn, AggregateTypeAdmin, s.Admin.ID, s.IssuedAt),
		SessionID:       s.ID.String(),
		Role:            s.Admin.Role,
	}
}
