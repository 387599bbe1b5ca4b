package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/warranty"
)

// WarrantyRegistrationRecord is the stored form of a warranty Registration.
// Coverage dates are calendar dates; status is whatever was last computed and
// is refreshed on every read.
type WarrantyRegistrationRecord struct {
	AggregateRecord
	ProductInstanceID uuid.UUID       `json:"productInstanceId"`
	CustomerName      string          `json:"customerName"`
	CustomerEmail     string          `json:"customerEmail"`
	CustomerPhone     string          `json:"customerPhone,omitempty"`
	PurchaseDate      string          `json:"purchaseDate"`
	WarrantyStartDate string          `json:"warrantyStartDate"`
	WarrantyEndDate   string          `json:"warrantyEndDate"`
	Status            warranty.Status `json:"status"`
	RegisteredAt      time.Time       `json:"registeredAt"`
}

// ToDomain converts the record to a domain Registration
func (m *WarrantyRegistrationRecord) ToDomain() (*warranty.Registration, error) {
	purchase, err := warranty.ParseDate(m.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("registration %s purchase date: %w", m.ID, err)
	}
	start, err := warranty.ParseDate(m.WarrantyStartDate)
	if err != nil {
		return nil, fmt.Errorf("registration %s start date: %w", m.ID, err)
	}
	end, err := warranty.ParseDate(m.WarrantyEndDate)
	if err != nil {
		return nil, fmt.Errorf("registration %s end date: %w", m.ID, err)
	}
	return &warranty.Registration{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductInstanceID: m.ProductInstanceID,
		Customer: warranty.Customer{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		PurchaseDate:      purchase,
		WarrantyStartDate: start,
		WarrantyEndDate:   end,
		Status:            m.Status,
		RegisteredAt:      m.RegisteredAt,
	}, nil
}

// FromDomain populates the record from a domain Registration
func (m *WarrantyRegistrationRecord) FromDomain(r *warranty.Registration) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProductInstanceID = r.ProductInstanceID
	m.CustomerName = r.Customer.Name
	m.CustomerEmail = r.Customer.Email
	m.CustomerPhone = r.Customer.Phone
	m.PurchaseDate = warranty.FormatDate(r.PurchaseDate)
	m.WarrantyStartDate = warranty.FormatDate(r.WarrantyStartDate)
	m.WarrantyEndDate = warranty.FormatDate(r.WarrantyEndDate)
	m.Status = r.Status
	m.RegisteredAt = r.RegisteredAt
}

// WarrantyRegistrationRecordFromDomain creates a new record from a domain Registration
func WarrantyRegistrationRecordFromDomain(r *warranty.Registration) WarrantyRegistrationRecord {
	var m WarrantyRegistrationRecord
	m.FromDomain(r)
	return m
}
