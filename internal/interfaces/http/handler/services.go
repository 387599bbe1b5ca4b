package handler

import (
	"context"

	"github.com/google/uuid"
	catalogapp "github.com/warrantyhub/backend/internal/application/catalog"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	warrantyapp "github.com/warrantyhub/backend/internal/application/warranty"
	"github.com/warrantyhub/backend/internal/domain/identity"
)

// ProductService is the catalog surface the handlers use
type ProductService interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.CreateProductResponse, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context) ([]catalogapp.ProductResponse, error)
	Update(ctx context.Context, productID uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)
	Delete(ctx context.Context, productID uuid.UUID) (*catalogapp.DeleteProductResponse, error)
	GenerateInstances(ctx context.Context, productID uuid.UUID, req catalogapp.GenerateInstancesRequest) ([]catalogapp.InstanceResponse, error)
	ListInstances(ctx context.Context, filter catalogapp.InstanceListFilter) ([]catalogapp.InstanceResponse, error)
	GetInstanceByQRCode(ctx context.Context, code string) (*catalogapp.InstanceResponse, error)
	GetInstanceByBarcode(ctx context.Context, code string) (*catalogapp.InstanceResponse, error)
	GetInstanceBySerialNumber(ctx context.Context, serial string) (*catalogapp.InstanceResponse, error)
	CountProducts(ctx context.Context) (int, error)
	CountInstances(ctx context.Context) (int, error)
	UploadImage(ctx context.Context, productID uuid.UUID, req catalogapp.UploadImageRequest) (*catalogapp.ImageResponse, error)
}

// RegistrationService is the warranty surface the handlers use
type RegistrationService interface {
	Lookup(ctx context.Context, code string) (*warrantyapp.LookupResponse, error)
	Register(ctx context.Context, req warrantyapp.RegisterWarrantyRequest) (*warrantyapp.RegistrationResponse, error)
	List(ctx context.Context) ([]warrantyapp.RegistrationResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*warrantyapp.RegistrationResponse, error)
	GetByInstanceID(ctx context.Context, instanceID uuid.UUID) (*warrantyapp.RegistrationResponse, error)
	Certificate(ctx context.Context, id uuid.UUID, format warrantyapp.CertificateFormat) (*warrantyapp.CertificateResult, error)
}

// AdminService is the admin directory surface the handlers use
type AdminService interface {
	Register(ctx context.Context, req identityapp.RegisterAdminRequest) (*identityapp.AdminResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*identityapp.AdminResponse, error)
	List(ctx context.Context) ([]identityapp.AdminResponse, error)
	ListPending(ctx context.Context) ([]identityapp.AdminResponse, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*identityapp.AdminResponse, error)
	Suspend(ctx context.Context, id uuid.UUID) (*identityapp.AdminResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, actor identityapp.Actor, id uuid.UUID, req identityapp.UpdateProfileRequest) (*identityapp.AdminResponse, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req identityapp.ChangePasswordRequest) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, req identityapp.UpdateSubscriptionRequest) (*identityapp.AdminResponse, error)
	CheckSubscriptionLimits(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current int) (*identityapp.LimitCheckResponse, error)
	EnsureWithinLimit(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current, count int) error
	Plans() []identityapp.PlanResponse
}

// AuthService is the session surface the handlers use
type AuthService interface {
	Login(ctx context.Context, req identityapp.LoginRequest) (*identityapp.LoginResponse, error)
	Logout(ctx context.Context, req identityapp.LogoutRequest) error
	CurrentSession(ctx context.Context) (*identityapp.SessionResponse, error)
	HasPermission(ctx context.Context, permission identity.Permission) (bool, error)
}

var (
	_ ProductService      = (*catalogapp.ProductService)(nil)
	_ RegistrationService = (*warrantyapp.RegistrationService)(nil)
	_ AdminService        = (*identityapp.AdminService)(nil)
	_ AuthService         = (*identityapp.AuthService)(nil)
)
