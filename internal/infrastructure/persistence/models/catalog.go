package models

import (
	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
)

// ProductRecord is the stored form of a Product
type ProductRecord struct {
	AggregateRecord
	Name                 string `json:"name"`
	Brand                string `json:"brand"`
	Model                string `json:"model"`
	Category             string `json:"category"`
	WarrantyPeriodMonths int    `json:"warrantyPeriodMonths"`
	Image                string `json:"image,omitempty"`
}

// ToDomain converts the record to a domain Product
func (m *ProductRecord) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		Name:                 m.Name,
		Brand:                m.Brand,
		Model:                m.Model,
		Category:             m.Category,
		WarrantyPeriodMonths: m.WarrantyPeriodMonths,
		Image:                m.Image,
	}
}

// FromDomain populates the record from a domain Product
func (m *ProductRecord) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Brand = p.Brand
	m.Model = p.Model
	m.Category = p.Category
	m.WarrantyPeriodMonths = p.WarrantyPeriodMonths
	m.Image = p.Image
}

// ProductRecordFromDomain creates a new record from a domain Product
func ProductRecordFromDomain(p *catalog.Product) ProductRecord {
	var m ProductRecord
	m.FromDomain(p)
	return m
}

// ProductInstanceRecord is the stored form of a ProductInstance
type ProductInstanceRecord struct {
	BaseRecord
	ProductID    uuid.UUID `json:"productId"`
	QRCode       string    `json:"qrCode"`
	Barcode      string    `json:"barcode,omitempty"`
	SerialNumber string    `json:"serialNumber"`
	IsRegistered bool      `json:"isRegistered"`
}

// ToDomain converts the record to a domain ProductInstance
func (m *ProductInstanceRecord) ToDomain() *catalog.ProductInstance {
	return &catalog.ProductInstance{
		BaseEntity:   m.BaseRecord.ToDomain(),
		ProductID:    m.ProductID,
		QRCode:       m.QRCode,
		Barcode:      m.Barcode,
		SerialNumber: m.SerialNumber,
		IsRegistered: m.IsRegistered,
	}
}

// FromDomain populates the record from a domain ProductInstance
func (m *ProductInstanceRecord) FromDomain(i *catalog.ProductInstance) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ProductID = i.ProductID
	m.QRCode = i.QRCode
	m.Barcode = i.Barcode
	m.SerialNumber = i.SerialNumber
	m.IsRegistered = i.IsRegistered
}

// ProductInstanceRecordFromDomain creates a new record from a domain ProductInstance
func ProductInstanceRecordFromDomain(i *catalog.ProductInstance) ProductInstanceRecord {
	var m ProductInstanceRecord
	m.FromDomain(i)
	return m
}
