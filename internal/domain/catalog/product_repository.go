package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/warranty"
)

// CascadeResult reports what a product deletion removed
type CascadeResult struct {
	InstancesRemoved     int
	RegistrationsRemoved int
}

// InstanceFilter narrows instance listings
type InstanceFilter struct {
	ProductID    *uuid.UUID
	IsRegistered *bool
}

// Store owns products, their instances and warranty registrations.
// Every mutating call is atomic: on error nothing is changed.
//
// Invariants held by implementations:
//   - qrCode, barcode (when set) and serialNumber are unique across all instances
//   - an instance belongs to an existing product
//   - an instance has at most one registration, and it is registered iff it has one
//   - deleting a product removes its instances and their registrations
type Store interface {
	// CreateProduct adds a new product
	CreateProduct(ctx context.Context, product *Product) error

	// UpdateProduct replaces an existing product; returns ErrNotFound if it is gone
	UpdateProduct(ctx context.Context, product *Product) error

	// FindProductByID returns ErrNotFound when absent
	FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAllProducts lists products in creation order
	FindAllProducts(ctx context.Context) ([]Product, error)

	// DeleteProduct removes a product with its instances and their registrations
	DeleteProduct(ctx context.Context, id uuid.UUID) (CascadeResult, error)

	// CountProducts counts all products
	CountProducts(ctx context.Context) (int, error)

	// AddInstances adds units all-or-nothing; an identifier collision fails
	// the whole batch with a conflict error
	AddInstances(ctx context.Context, instances []*ProductInstance) error

	// UpdateInstance replaces an existing unit. Identifiers must stay unique;
	// the registration flag only changes through AddRegistration
	UpdateInstance(ctx context.Context, instance *ProductInstance) error

	// FindInstanceByID returns ErrNotFound when absent
	FindInstanceByID(ctx context.Context, id uuid.UUID) (*ProductInstance, error)

	// FindInstanceByQRCode looks up a unit by exact QR code
	FindInstanceByQRCode(ctx context.Context, code string) (*ProductInstance, error)

	// FindInstanceByBarcode looks up a unit by exact barcode
	FindInstanceByBarcode(ctx context.Context, code string) (*ProductInstance, error)

	// FindInstanceBySerialNumber looks up a unit by exact serial number
	FindInstanceBySerialNumber(ctx context.Context, serial string) (*ProductInstance, error)

	// FindInstances lists units matching the filter in creation order
	FindInstances(ctx context.Context, filter InstanceFilter) ([]ProductInstance, error)

	// CountInstances counts units matching the filter
	CountInstances(ctx context.Context, filter InstanceFilter) (int, error)

	// AddRegistration stores the registration and marks its instance as
	// registered in one atomic write. Returns a conflict error if the
	// instance already has a registration.
	AddRegistration(ctx context.Context, registration *warranty.Registration) error

	// FindRegistrationByID returns ErrNotFound when absent
	FindRegistrationByID(ctx context.Context, id uuid.UUID) (*warranty.Registration, error)

	// FindRegistrationByInstanceID returns ErrNotFound when the unit is unregistered
	FindRegistrationByInstanceID(ctx context.Context, instanceID uuid.UUID) (*warranty.Registration, error)

	// FindAllRegistrations lists registrations in registration order
	FindAllRegistrations(ctx context.Context) ([]warranty.Registration, error)

	// CountRegistrations counts all registrations
	CountRegistrations(ctx context.Context) (int, error)
}
