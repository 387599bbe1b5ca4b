package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/shared"
)

// BaseRecord provides common persisted fields for all records.
// It maps to the domain's BaseEntity.
type BaseRecord struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToDomain converts BaseRecord to domain BaseEntity
func (m *BaseRecord) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseRecord from domain BaseEntity
func (m *BaseRecord) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateRecord extends BaseRecord with the aggregate version
type AggregateRecord struct {
	BaseRecord
	Version int `json:"version"`
}

// FromDomainAggregateRoot populates AggregateRecord from domain BaseAggregateRoot
func (m *AggregateRecord) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the domain aggregate root fields
func (m *AggregateRecord) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseRecord.ToDomain(),
		Version:    m.Version,
	}
}
