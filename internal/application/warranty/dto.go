package warranty

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/warranty"
)

// RegisterWarrantyRequest is the customer submission after scanning a unit.
// Code is the scanned QR code or barcode.
type RegisterWarrantyRequest struct {
	Code          string `json:"code" binding:"required,max=100"`
	CustomerName  string `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string `json:"customer_email" binding:"required,email,max=200"`
	CustomerPhone string `json:"customer_phone" binding:"max=50"`
	PurchaseDate  string `json:"purchase_date" binding:"required,datetime=2006-01-02"`
}

// ProductSummary is the product part of customer-facing responses
type ProductSummary struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Brand                string    `json:"brand"`
	Model                string    `json:"model"`
	Category             string    `json:"category"`
	WarrantyPeriodMonths int       `json:"warranty_period_months"`
	Image                string    `json:"image,omitempty"`
}

// InstanceSummary is the unit part of customer-facing responses
type InstanceSummary struct {
	ID           uuid.UUID `json:"id"`
	QRCode       string    `json:"qr_code"`
	Barcode      string    `json:"barcode,omitempty"`
	SerialNumber string    `json:"serial_number"`
	IsRegistered bool      `json:"is_registered"`
}

// RegistrationResponse is a registration with status and days remaining
// evaluated at request time
type RegistrationResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductInstanceID uuid.UUID       `json:"product_instance_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerPhone     string          `json:"customer_phone,omitempty"`
	PurchaseDate      string          `json:"purchase_date"`
	WarrantyStartDate string          `json:"warranty_start_date"`
	WarrantyEndDate   string          `json:"warranty_end_date"`
	Status            warranty.Status `json:"status"`
	DaysRemaining     int             `json:"days_remaining"`
	RegisteredAt      time.Time       `json:"registered_at"`
}

// LookupResponse is what a customer sees after scanning a code
type LookupResponse struct {
	Instance     InstanceSummary       `json:"instance"`
	Product      ProductSummary        `json:"product"`
	Registration *RegistrationResponse `json:"registration,omitempty"`
}

// CertificateFormat selects the certificate rendering
type CertificateFormat string

const (
	CertificateHTML CertificateFormat = "html"
	CertificatePDF  CertificateFormat = "pdf"
)

// CertificateData is everything printed on a warranty certificate
type CertificateData struct {
	RegistrationID       uuid.UUID
	CustomerName         string
	CustomerEmail        string
	CustomerPhone        string
	ProductName          string
	Brand                string
	Model                string
	Category             string
	WarrantyPeriodMonths int
	QRCode               string
	Barcode              string
	SerialNumber         string
	PurchaseDate         time.Time
	WarrantyStartDate    time.Time
	WarrantyEndDate      time.Time
	Status               warranty.Status
	DaysRemaining        int
	IssuedAt             time.Time
}

// CertificateResult is a rendered certificate
type CertificateResult struct {
	FileName    string
	ContentType string
	Data        []byte
	ArchiveKey  string
}

// ToRegistrationResponse converts a refreshed registration
func ToRegistrationResponse(r *warranty.Registration, now time.Time) RegistrationResponse {
	return RegistrationResponse{
		ID:                r.ID,
		ProductInstanceID: r.ProductInstanceID,
		CustomerName:      r.Customer.Name,
		CustomerEmail:     r.Customer.Email,
		CustomerPhone:     r.Customer.Phone,
		PurchaseDate:      warranty.FormatDate(r.PurchaseDate),
		WarrantyStartDate: warranty.FormatDate(r.WarrantyStartDate),
		WarrantyEndDate:   warranty.FormatDate(r.WarrantyEndDate),
		Status:            r.Status,
		DaysRemaining:     r.DaysRemaining(now),
		RegisteredAt:      r.RegisteredAt,
	}
}

func toProductSummary(p *catalog.Product) ProductSummary {
	return ProductSummary{
		ID:                   p.ID,
		Name:                 p.Name,
		Brand:                p.Brand,
		Model:                p.Model,
		Category:             p.Category,
		WarrantyPeriodMonths: p.WarrantyPeriodMonths,
		Image:                p.Image,
	}
}

func toInstanceSummary(i *catalog.ProductInstance) InstanceSummary {
	return InstanceSummary{
		ID:           i.ID,
		QRCode:       i.QRCode,
		Barcode:      i.Barcode,
		SerialNumber: i.SerialNumber,
		IsRegistered: i.IsRegistered,
	}
}
