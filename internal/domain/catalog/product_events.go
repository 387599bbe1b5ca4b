package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated     = "ProductCreated"
	EventTypeProductUpdated     = "ProductUpdated"
	EventTypeProductDeleted     = "ProductDeleted"
	EventTypeInstancesGenerated = "ProductInstancesGenerated"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.CreatedAt),
		ProductID:       p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Category:        p.Category,
	}
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID            uuid.UUID `json:"product_id"`
	Name                 string    `json:"name"`
	WarrantyPeriodMonths int       `json:"warranty_period_months"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID, p.UpdatedAt),
		ProductID:            p.ID,
		Name:                 p.Name,
		WarrantyPeriodMonths: p.WarrantyPeriodMonths,
	}
}

// ProductDeletedEvent is published after a product and everything under it is removed
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID            uuid.UUID `json:"product_id"`
	InstancesRemoved     int       `json:"instances_removed"`
	RegistrationsRemoved int       `json:"registrations_removed"`
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(productID uuid.UUID, result CascadeResult, at time.Time) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, productID, at),
		ProductID:            productID,
		InstancesRemoved:     result.InstancesRemoved,
		RegistrationsRemoved: result.RegistrationsRemoved,
	}
}

// InstancesGeneratedEvent is published when new units are added to a product
type InstancesGeneratedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// NewInstancesGeneratedEvent creates a new InstancesGeneratedEvent
func NewInstancesGeneratedEvent(productID uuid.UUID, quantity int, at time.Time) *InstancesGeneratedEvent {
	return &InstancesGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstancesGenerated, AggregateTypeProduct, productID, at),
		ProductID:       productID,
		Quantity:        quantity,
	}
}
