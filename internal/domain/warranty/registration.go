package warranty

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// AggregateTypeRegistration is the aggregate type name used in events
const AggregateTypeRegistration = "WarrantyRegistration"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer is the person claiming coverage for a unit
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Registration binds one product instance to warranty coverage dates.
// Status is a cached projection; callers must Refresh before trusting it.
type Registration struct {
	shared.BaseAggregateRoot
	ProductInstanceID uuid.UUID
	Customer          Customer
	PurchaseDate      time.Time
	WarrantyStartDate time.Time
	WarrantyEndDate   time.Time
	Status            Status
	RegisteredAt      time.Time
}

// NewRegistration validates the customer submission and derives the coverage window.
// purchaseDate must be a calendar date no later than today.
func NewRegistration(instanceID uuid.UUID, customer Customer, purchaseDate time.Time, warrantyMonths int, policy Policy, now time.Time) (*Registration, error) {
	if instanceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INSTANCE", "Product instance ID cannot be empty")
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	customer.Phone = strings.TrimSpace(customer.Phone)
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if purchaseDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PURCHASE_DATE", "Purchase date is required")
	}
	if Today(purchaseDate).After(Today(now)) {
		return nil, shared.NewDomainError("INVALID_PURCHASE_DATE", "Purchase date cannot be in the future")
	}
	if warrantyMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_WARRANTY_PERIOD", "Warranty period must be a positive number of months")
	}

	start := Today(purchaseDate)
	end := CalculateEndDate(start, warrantyMonths)

	r := &Registration{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		ProductInstanceID: instanceID,
		Customer:          customer,
		PurchaseDate:      start,
		WarrantyStartDate: start,
		WarrantyEndDate:   end,
		Status:            policy.StatusAt(end, now),
		RegisteredAt:      now,
	}
	r.AddDomainEvent(NewWarrantyRegisteredEvent(r))
	return r, nil
}

// Refresh recomputes the cached status against now
func (r *Registration) Refresh(policy Policy, now time.Time) Status {
	r.Status = policy.StatusAt(r.WarrantyEndDate, now)
	return r.Status
}

// DaysRemaining reports whole days of coverage left at now
func (r *Registration) DaysRemaining(now time.Time) int {
	return DaysRemaining(r.WarrantyEndDate, now)
}

func validateCustomer(c Customer) error {
	if c.Name == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name is required")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}
	if c.Email == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_EMAIL", "Customer email is required")
	}
	if len(c.Email) > 200 || !emailRegex.MatchString(c.Email) {
		return shared.NewDomainError("INVALID_CUSTOMER_EMAIL", "Invalid email format")
	}
	if len(c.Phone) > 50 {
		return shared.NewDomainError("INVALID_CUSTOMER_PHONE", "Phone cannot exceed 50 characters")
	}
	return nil
}
