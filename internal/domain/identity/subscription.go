package identity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier
type PlanID string

const (
	PlanBasic      PlanID = "basic"
	PlanPremium    PlanID = "premium"
	PlanEnterprise PlanID = "enterprise"
)

// SubscriptionStatus is the billing state of an admin's subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// ResourceType names a plan-limited resource
type ResourceType string

const (
	ResourceProducts   ResourceType = "products"
	ResourceQRCodes    ResourceType = "qrCodes"
	ResourceWarranties ResourceType = "warranties"
)

// Unlimited is the limit value meaning no cap
const Unlimited = -1

// PlanLimits caps resource counts per plan; Unlimited (-1) means no cap
type PlanLimits struct {
	Products   int
	QRCodes    int
	Warranties int
}

// SubscriptionPlan is an entry of the static plan catalog
type SubscriptionPlan struct {
	ID             PlanID
	Name           string
	Price          decimal.Decimal
	DurationMonths int
	Features       []string
	Limits         PlanLimits
}

// GetLimit returns the limit for a resource type, or 0 for unknown types
func (p SubscriptionPlan) GetLimit(resource ResourceType) int {
	switch resource {
	case ResourceProducts:
		return p.Limits.Products
	case ResourceQRCodes:
		return p.Limits.QRCodes
	case ResourceWarranties:
		return p.Limits.Warranties
	default:
		return 0
	}
}

// Allows reports whether one more resource fits under the limit given the current count
func (p SubscriptionPlan) Allows(resource ResourceType, current int) bool {
	limit := p.GetLimit(resource)
	return limit == Unlimited || current < limit
}

var planCatalog = []SubscriptionPlan{
	{
		ID:             PlanBasic,
		Name:           "Basic Plan",
		Price:          decimal.NewFromInt(29),
		DurationMonths: 1,
		Features:       []string{"Product Management", "QR Code Generation", "Basic Analytics"},
		Limits:         PlanLimits{Products: 100, QRCodes: 1000, Warranties: 500},
	},
	{
		ID:             PlanPremium,
		Name:           "Premium Plan",
		Price:          decimal.NewFromInt(79),
		DurationMonths: 1,
		Features:       []string{"All Basic Features", "Advanced Analytics", "Custom Branding", "API Access"},
		Limits:         PlanLimits{Products: 500, QRCodes: 5000, Warranties: 2500},
	},
	{
		ID:             PlanEnterprise,
		Name:           "Enterprise Plan",
		Price:          decimal.NewFromInt(199),
		DurationMonths: 1,
		Features:       []string{"All Premium Features", "White Label", "Priority Support", "Custom Integrations"},
		Limits:         PlanLimits{Products: Unlimited, QRCodes: Unlimited, Warranties: Unlimited},
	},
}

// Plans returns a copy of the plan catalog
func Plans() []SubscriptionPlan {
	out := make([]SubscriptionPlan, len(planCatalog))
	for i, p := range planCatalog {
		p.Features = slices.Clone(p.Features)
		out[i] = p
	}
	return out
}

// FindPlan looks up a plan by ID
func FindPlan(id PlanID) (SubscriptionPlan, bool) {
	for _, p := range planCatalog {
		if p.ID == id {
			p.Features = slices.Clone(p.Features)
			return p, true
		}
	}
	return SubscriptionPlan{}, false
}

// Subscription is the plan assignment of an admin
type Subscription struct {
	Plan      PlanID
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   time.Time
	Features  []string
}

// NewSubscription starts an active subscription on plan for months
func NewSubscription(plan SubscriptionPlan, months int, now time.Time) Subscription {
	return Subscription{
		Plan:      plan.ID,
		Status:    SubscriptionActive,
		StartDate: now,
		EndDate:   now.AddDate(0, months, 0),
		Features:  slices.Clone(plan.Features),
	}
}

// IsActive reports whether feature-gated permissions apply. Only the stored
// status counts; EndDate is informational.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}
