package catalog

import (
	"strings"
	"time"

	"github.com/warrantyhub/backend/internal/domain/shared"
)

// MaxWarrantyPeriodMonths caps the warranty period accepted for a product
const MaxWarrantyPeriodMonths = 1200

// Product is a catalog entry whose physical units are tracked as instances.
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	Name                 string
	Brand                string
	Model                string
	Category             string
	WarrantyPeriodMonths int
	Image                string
}

// ProductUpdate carries a partial update; nil fields are left unchanged
type ProductUpdate struct {
	Name                 *string
	Brand                *string
	Model                *string
	Category             *string
	WarrantyPeriodMonths *int
	Image                *string
}

// NewProduct creates a new product
func NewProduct(name, brand, model, category string, warrantyMonths int, image string, now time.Time) (*Product, error) {
	p := &Product{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(now),
		Name:                 strings.TrimSpace(name),
		Brand:                strings.TrimSpace(brand),
		Model:                strings.TrimSpace(model),
		Category:             strings.TrimSpace(category),
		WarrantyPeriodMonths: warrantyMonths,
		Image:                strings.TrimSpace(image),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Apply merges a partial update into the product. The ID and creation time never change.
func (p *Product) Apply(update ProductUpdate, now time.Time) error {
	next := *p
	if update.Name != nil {
		next.Name = strings.TrimSpace(*update.Name)
	}
	if update.Brand != nil {
		next.Brand = strings.TrimSpace(*update.Brand)
	}
	if update.Model != nil {
		next.Model = strings.TrimSpace(*update.Model)
	}
	if update.Category != nil {
		next.Category = strings.TrimSpace(*update.Category)
	}
	if update.WarrantyPeriodMonths != nil {
		next.WarrantyPeriodMonths = *update.WarrantyPeriodMonths
	}
	if update.Image != nil {
		next.Image = strings.TrimSpace(*update.Image)
	}
	if err := next.validate(); err != nil {
		return err
	}

	p.Name = next.Name
	p.Brand = next.Brand
	p.Model = next.Model
	p.Category = next.Category
	p.WarrantyPeriodMonths = next.WarrantyPeriodMonths
	p.Image = next.Image
	p.Touch(now)
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// SetImage records the stored image reference
func (p *Product) SetImage(ref string, now time.Time) {
	p.Image = ref
	p.Touch(now)
	p.IncrementVersion()
}

// HasImage reports whether an image reference is set
func (p *Product) HasImage() bool {
	return p.Image != ""
}

func (p *Product) validate() error {
	if err := validateText("INVALID_NAME", "Product name", p.Name, 200); err != nil {
		return err
	}
	if err := validateText("INVALID_BRAND", "Brand", p.Brand, 100); err != nil {
		return err
	}
	if err := validateText("INVALID_MODEL", "Model", p.Model, 100); err != nil {
		return err
	}
	if err := validateText("INVALID_CATEGORY", "Category", p.Category, 100); err != nil {
		return err
	}
	if p.WarrantyPeriodMonths <= 0 {
		return shared.NewDomainError("INVALID_WARRANTY_PERIOD", "Warranty period must be a positive number of months")
	}
	if p.WarrantyPeriodMonths > MaxWarrantyPeriodMonths {
		return shared.NewDomainError("INVALID_WARRANTY_PERIOD", "Warranty period cannot exceed 1200 months")
	}
	if len(p.Image) > 1024 {
		return shared.NewDomainError("INVALID_IMAGE", "Image reference cannot exceed 1024 characters")
	}
	return nil
}

func validateText(code, field, value string, max int) error {
	if value == "" {
		return shared.NewDomainError(code, field+" cannot be empty")
	}
	if len(value) > max {
		return shared.NewDomainError(code, field+" is too long")
	}
	return nil
}
