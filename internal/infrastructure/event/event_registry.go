package event

import (
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/warranty"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	// Catalog
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductDeleted, &catalog.ProductDeletedEvent{})
	serializer.Register(catalog.EventTypeInstancesGenerated, &catalog.InstancesGeneratedEvent{})

	// Warranty
	serializer.Register(warranty.EventTypeWarrantyRegistered, &warranty.WarrantyRegisteredEvent{})

	// Identity
	serializer.Register(identity.EventTypeAdminRegistered, &identity.AdminRegisteredEvent{})
	serializer.Register(identity.EventTypeAdminStatusChanged, &identity.AdminStatusChangedEvent{})
	serializer.Register(identity.EventTypeAdminDeleted, &identity.AdminDeletedEvent{})
	serializer.Register(identity.EventTypeSubscriptionChanged, &identity.SubscriptionChangedEvent{})
	serializer.Register(identity.EventTypeAdminLoggedIn, &identity.AdminLoggedInEvent{})
}
