package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identifier"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// ProductInstance is one physical unit of a product, identified by its
// QR code, barcode and serial number.
type ProductInstance struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	QRCode       string
	Barcode      string
	SerialNumber string
	IsRegistered bool
}

// NewProductInstance creates an unregistered unit from generated identifiers
func NewProductInstance(productID uuid.UUID, codes identifier.Codes, now time.Time) (*ProductInstance, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if codes.QRCode == "" {
		return nil, shared.NewDomainError("INVALID_QR_CODE", "QR code cannot be empty")
	}
	if codes.SerialNumber == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL_NUMBER", "Serial number cannot be empty")
	}
	return &ProductInstance{
		BaseEntity:   shared.NewBaseEntity(now),
		ProductID:    productID,
		QRCode:       codes.QRCode,
		Barcode:      codes.Barcode,
		SerialNumber: codes.SerialNumber,
	}, nil
}

// MarkRegistered flips IsRegistered. A unit can be registered only once.
func (i *ProductInstance) MarkRegistered(now time.Time) error {
	if i.IsRegistered {
		return shared.NewDomainError(shared.CodeConflict, "Product instance is already registered")
	}
	i.IsRegistered = true
	i.Touch(now)
	return nil
}

// Codes returns the identifier triplet of the unit
func (i *ProductInstance) Codes() identifier.Codes {
	return identifier.Codes{
		QRCode:       i.QRCode,
		Barcode:      i.Barcode,
		SerialNumber: i.SerialNumber,
	}
}
