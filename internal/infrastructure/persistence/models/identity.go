package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/identity"
)

// ProfileRecord is the stored form of an admin's contact details
type ProfileRecord struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func (m ProfileRecord) toDomain() identity.Profile {
	return identity.Profile{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Company:   m.Company,
		Phone:     m.Phone,
	}
}

func profileRecordFromDomain(p identity.Profile) ProfileRecord {
	return ProfileRecord{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Company:   p.Company,
		Phone:     p.Phone,
	}
}

// SubscriptionRecord is the stored form of an admin's subscription
type SubscriptionRecord struct {
	Plan      identity.PlanID             `json:"plan"`
	Status    identity.SubscriptionStatus `json:"status"`
	StartDate time.Time                   `json:"startDate"`
	EndDate   time.Time                   `json:"endDate"`
	Features  []string                    `json:"features"`
}

// AdminRecord is the stored form of an Admin account
type AdminRecord struct {
	AggregateRecord
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	PasswordHash string               `json:"passwordHash"`
	PINHash      string               `json:"pinHash,omitempty"`
	Role         identity.Role        `json:"role"`
	Status       identity.AdminStatus `json:"status"`
	Subscription SubscriptionRecord   `json:"subscription"`
	Profile      ProfileRecord        `json:"profile"`
	ApprovedAt   *time.Time           `json:"approvedAt,omitempty"`
	ApprovedBy   *uuid.UUID           `json:"approvedBy,omitempty"`
	LastLoginAt  *time.Time           `json:"lastLogin,omitempty"`
}

// ToDomain converts the record to a domain Admin
func (m *AdminRecord) ToDomain() *identity.Admin {
	return &identity.Admin{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		PINHash:           m.PINHash,
		Role:              m.Role,
		Status:            m.Status,
		Subscription: identity.Subscription{
			Plan:      m.Subscription.Plan,
			Status:    m.Subscription.Status,
			StartDate: m.Subscription.StartDate,
			EndDate:   m.Subscription.EndDate,
			Features:  append([]string(nil), m.Subscription.Features...),
		},
		Profile:     m.Profile.toDomain(),
		ApprovedAt:  m.ApprovedAt,
		ApprovedBy:  m.ApprovedBy,
		LastLoginAt: m.LastLoginAt,
	}
}

// FromDomain populates the record from a domain Admin
func (m *AdminRecord) FromDomain(a *identity.Admin) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Username = a.Username
	m.Email = a.Email
	m.PasswordHash = a.PasswordHash
	m.PINHash = a.PINHash
	m.Role = a.Role
	m.Status = a.Status
	m.Subscription = SubscriptionRecord{
		Plan:      a.Subscription.Plan,
		Status:    a.Subscription.Status,
		StartDate: a.Subscription.StartDate,
		EndDate:   a.Subscription.EndDate,
		Features:  append([]string(nil), a.Subscription.Features...),
	}
	m.Profile = profileRecordFromDomain(a.Profile)
	m.ApprovedAt = a.ApprovedAt
	m.ApprovedBy = a.ApprovedBy
	m.LastLoginAt = a.LastLoginAt
}

// AdminRecordFromDomain creates a new record from a domain Admin
func AdminRecordFromDomain(a *identity.Admin) AdminRecord {
	var m AdminRecord
	m.FromDomain(a)
	return m
}

// SessionAdminRecord is the admin snapshot embedded in a session
type SessionAdminRecord struct {
	ID               uuid.UUID            `json:"id"`
	Username         string               `json:"username"`
	Email            string               `json:"email"`
	Role             identity.Role        `json:"role"`
	Status           identity.AdminStatus `json:"status"`
	Plan             identity.PlanID      `json:"plan"`
	SubscriptionEnds time.Time            `json:"subscriptionEnds"`
	Profile          ProfileRecord        `json:"profile"`
}

// SessionRecord is the stored form of the current session
type SessionRecord struct {
	ID          uuid.UUID             `json:"id"`
	Admin       SessionAdminRecord    `json:"admin"`
	Permissions []identity.Permission `json:"permissions"`
	IssuedAt    time.Time             `json:"issuedAt"`
	ExpiresAt   time.Time             `json:"expiresAt"`
}

// ToDomain converts the record to a domain Session
func (m *SessionRecord) ToDomain() *identity.Session {
	return &identity.Session{
		ID: m.ID,
		Admin: identity.SessionAdmin{
			ID:               m.Admin.ID,
			Username:         m.Admin.Username,
			Email:            m.Admin.Email,
			Role:             m.Admin.Role,
			Status:           m.Admin.Status,
			Plan:             m.Admin.Plan,
			SubscriptionEnds: m.Admin.SubscriptionEnds,
			Profile:          m.Admin.Profile.toDomain(),
		},
		Permissions: append([]identity.Permission(nil), m.Permissions...),
		IssuedAt:    m.IssuedAt,
		ExpiresAt:   m.ExpiresAt,
	}
}

// SessionRecordFromDomain creates a new record from a domain Session
func SessionRecordFromDomain(s *identity.Session) SessionRecord {
	return SessionRecord{
		ID: s.ID,
		Admin: SessionAdminRecord{
			ID:               s.Admin.ID,
			Username:         s.Admin.Username,
			Email:            s.Admin.Email,
			Role:             s.Admin.Role,
			Status:           s.Admin.Status,
			Plan:             s.Admin.Plan,
			SubscriptionEnds: s.Admin.SubscriptionEnds,
			Profile:          profileRecordFromDomain(s.Admin.Profile),
		},
		Permissions: append([]identity.Permission(nil), s.Permissions...),
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}
