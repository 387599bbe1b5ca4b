package warranty

import (
	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// EventTypeWarrantyRegistered is published when a customer registers a unit
const EventTypeWarrantyRegistered = "WarrantyRegistered"

// WarrantyRegisteredEvent is published when a registration is created
type WarrantyRegisteredEvent struct {
	shared.BaseDomainEvent
	RegistrationID    uuid.UUID `json:"registration_id"`
	ProductInstanceID uuid.UUID `json:"product_instance_id"`
	CustomerEmail     string    `json:"customer_email"`
	WarrantyEndDate   string    `json:"warranty_end_date"`
	Status            Status    `json:"status"`
}

// NewWarrantyRegisteredEvent creates a new WarrantyRegisteredEvent
func NewWarrantyRegisteredEvent(r *Registration) *WarrantyRegisteredEvent {
	return &WarrantyRegisteredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeWarrantyRegistered, AggregateTypeRegistration, r.ID, r.RegisteredAt),
		RegistrationID:    r.ID,
		ProductInstanceID: r.ProductInstanceID,
		CustomerEmail:     r.Customer.Email,
		WarrantyEndDate:   FormatDate(r.WarrantyEndDate),
		Status:            r.Status,
	}
}
