package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product.
// InitialQuantity defaults to 1; zero creates the product without units.
type CreateProductRequest struct {
	Name                 string `json:"name" binding:"required,min=1,max=200"`
	Brand                string `json:"brand" binding:"required,min=1,max=100"`
	Model                string `json:"model" binding:"required,min=1,max=100"`
	Category             string `json:"category" binding:"required,min=1,max=100"`
	WarrantyPeriodMonths int    `json:"warranty_period_months" binding:"required,min=1,max=1200"`
	Image                string `json:"image" binding:"max=1024"`
	InitialQuantity      *int   `json:"initial_quantity" binding:"omitempty,min=0"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=1,max=200"`
	Brand                *string `json:"brand" binding:"omitempty,min=1,max=100"`
	Model                *string `json:"model" binding:"omitempty,min=1,max=100"`
	Category             *string `json:"category" binding:"omitempty,min=1,max=100"`
	WarrantyPeriodMonths *int    `json:"warranty_period_months" binding:"omitempty,min=1,max=1200"`
	Image                *string `json:"image" binding:"omitempty,max=1024"`
}

// GenerateInstancesRequest asks for more units of an existing product
type GenerateInstancesRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// UploadImageRequest carries a product image read from a multipart form
type UploadImageRequest struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Brand                string    `json:"brand"`
	Model                string    `json:"model"`
	Category             string    `json:"category"`
	WarrantyPeriodMonths int       `json:"warranty_period_months"`
	Image                string    `json:"image,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	Version              int       `json:"version"`
}

// CreateProductResponse is the created product with the units generated for it
type CreateProductResponse struct {
	Product   ProductResponse    `json:"product"`
	Instances []InstanceResponse `json:"instances"`
}

// DeleteProductResponse reports what a product deletion removed
type DeleteProductResponse struct {
	ProductID            uuid.UUID `json:"product_id"`
	InstancesRemoved     int       `json:"instances_removed"`
	RegistrationsRemoved int       `json:"registrations_removed"`
}

// InstanceResponse represents a product unit in API responses
type InstanceResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	QRCode       string    `json:"qr_code"`
	Barcode      string    `json:"barcode,omitempty"`
	SerialNumber string    `json:"serial_number"`
	IsRegistered bool      `json:"is_registered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InstanceListFilter narrows instance listings
type InstanceListFilter struct {
	ProductID    *uuid.UUID `form:"product_id"`
	IsRegistered *bool      `form:"is_registered"`
}

// ImageResponse describes a stored product image
type ImageResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	ImageKey  string    `json:"image_key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Brand:                p.Brand,
		Model:                p.Model,
		Category:             p.Category,
		WarrantyPeriodMonths: p.WarrantyPeriodMonths,
		Image:                p.Image,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.GetVersion(),
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// ToInstanceResponse converts a domain ProductInstance to InstanceResponse
func ToInstanceResponse(i *catalog.ProductInstance) InstanceResponse {
	return InstanceResponse{
		ID:           i.ID,
		ProductID:    i.ProductID,
		QRCode:       i.QRCode,
		Barcode:      i.Barcode,
		SerialNumber: i.SerialNumber,
		IsRegistered: i.IsRegistered,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// ToInstanceResponses converts a slice of domain ProductInstances
func ToInstanceResponses(instances []catalog.ProductInstance) []InstanceResponse {
	responses := make([]InstanceResponse, len(instances))
	for i := range instances {
		responses[i] = ToInstanceResponse(&instances[i])
	}
	return responses
}

func toInstancePointerResponses(instances []*catalog.ProductInstance) []InstanceResponse {
	responses := make([]InstanceResponse, len(instances))
	for i, inst := range instances {
		responses[i] = ToInstanceResponse(inst)
	}
	return responses
}
