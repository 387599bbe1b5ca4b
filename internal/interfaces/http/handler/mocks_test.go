package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	catalogapp "github.com/warrantyhub/backend/internal/application/catalog"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	warrantyapp "github.com/warrantyhub/backend/internal/application/warranty"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockProductService implements ProductService for testing
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.CreateProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.CreateProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context) ([]catalogapp.ProductResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, productID uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, productID uuid.UUID) (*catalogapp.DeleteProductResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.DeleteProductResponse), args.Error(1)
}

func (m *MockProductService) GenerateInstances(ctx context.Context, productID uuid.UUID, req catalogapp.GenerateInstancesRequest) ([]catalogapp.InstanceResponse, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.InstanceResponse), args.Error(1)
}

func (m *MockProductService) ListInstances(ctx context.Context, filter catalogapp.InstanceListFilter) ([]catalogapp.InstanceResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.InstanceResponse), args.Error(1)
}

func (m *MockProductService) GetInstanceByQRCode(ctx context.Context, code string) (*catalogapp.InstanceResponse, error) {
	return m.instance(m.Called(ctx, code))
}

func (m *MockProductService) GetInstanceByBarcode(ctx context.Context, code string) (*catalogapp.InstanceResponse, error) {
	return m.instance(m.Called(ctx, code))
}

func (m *MockProductService) GetInstanceBySerialNumber(ctx context.Context, serial string) (*catalogapp.InstanceResponse, error) {
	return m.instance(m.Called(ctx, serial))
}

func (m *MockProductService) instance(args mock.Arguments) (*catalogapp.InstanceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.InstanceResponse), args.Error(1)
}

func (m *MockProductService) CountProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductService) CountInstances(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductService) UploadImage(ctx context.Context, productID uuid.UUID, req catalogapp.UploadImageRequest) (*catalogapp.ImageResponse, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ImageResponse), args.Error(1)
}

// MockRegistrationService implements RegistrationService for testing
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Lookup(ctx context.Context, code string) (*warrantyapp.LookupResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warrantyapp.LookupResponse), args.Error(1)
}

func (m *MockRegistrationService) Register(ctx context.Context, req warrantyapp.RegisterWarrantyRequest) (*warrantyapp.RegistrationResponse, error) {
	return m.registration(m.Called(ctx, req))
}

func (m *MockRegistrationService) List(ctx context.Context) ([]warrantyapp.RegistrationResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]warrantyapp.RegistrationResponse), args.Error(1)
}

func (m *MockRegistrationService) GetByID(ctx context.Context, id uuid.UUID) (*warrantyapp.RegistrationResponse, error) {
	return m.registration(m.Called(ctx, id))
}

func (m *MockRegistrationService) GetByInstanceID(ctx context.Context, instanceID uuid.UUID) (*warrantyapp.RegistrationResponse, error) {
	return m.registration(m.Called(ctx, instanceID))
}

func (m *MockRegistrationService) registration(args mock.Arguments) (*warrantyapp.RegistrationResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warrantyapp.RegistrationResponse), args.Error(1)
}

func (m *MockRegistrationService) Certificate(ctx context.Context, id uuid.UUID, format warrantyapp.CertificateFormat) (*warrantyapp.CertificateResult, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warrantyapp.CertificateResult), args.Error(1)
}

// MockAdminService implements AdminService for testing
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Register(ctx context.Context, req identityapp.RegisterAdminRequest) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, req))
}

func (m *MockAdminService) GetByID(ctx context.Context, id uuid.UUID) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, id))
}

func (m *MockAdminService) List(ctx context.Context) ([]identityapp.AdminResponse, error) {
	return m.admins(m.Called(ctx))
}

func (m *MockAdminService) ListPending(ctx context.Context) ([]identityapp.AdminResponse, error) {
	return m.admins(m.Called(ctx))
}

func (m *MockAdminService) Approve(ctx context.Context, id, approverID uuid.UUID) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, id, approverID))
}

func (m *MockAdminService) Suspend(ctx context.Context, id uuid.UUID) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, id))
}

func (m *MockAdminService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdminService) UpdateProfile(ctx context.Context, actor identityapp.Actor, id uuid.UUID, req identityapp.UpdateProfileRequest) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, actor, id, req))
}

func (m *MockAdminService) ChangePassword(ctx context.Context, id uuid.UUID, req identityapp.ChangePasswordRequest) error {
	args := m.Called(ctx, id, req)
	return args.Error(0)
}

func (m *MockAdminService) UpdateSubscription(ctx context.Context, id uuid.UUID, req identityapp.UpdateSubscriptionRequest) (*identityapp.AdminResponse, error) {
	return m.admin(m.Called(ctx, id, req))
}

func (m *MockAdminService) CheckSubscriptionLimits(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current int) (*identityapp.LimitCheckResponse, error) {
	args := m.Called(ctx, adminID, resource, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LimitCheckResponse), args.Error(1)
}

func (m *MockAdminService) EnsureWithinLimit(ctx context.Context, adminID uuid.UUID, resource identity.ResourceType, current, count int) error {
	args := m.Called(ctx, adminID, resource, current, count)
	return args.Error(0)
}

func (m *MockAdminService) Plans() []identityapp.PlanResponse {
	args := m.Called()
	return args.Get(0).([]identityapp.PlanResponse)
}

func (m *MockAdminService) admin(args mock.Arguments) (*identityapp.AdminResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AdminResponse), args.Error(1)
}

func (m *MockAdminService) admins(args mock.Arguments) ([]identityapp.AdminResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identityapp.AdminResponse), args.Error(1)
}

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req identityapp.LoginRequest) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LoginResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, req identityapp.LogoutRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) CurrentSession(ctx context.Context) (*identityapp.SessionResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.SessionResponse), args.Error(1)
}

func (m *MockAuthService) HasPermission(ctx context.Context, permission identity.Permission) (bool, error) {
	args := m.Called(ctx, permission)
	return args.Bool(0), args.Error(1)
}

// authedAs simulates what JWTAuth stores for an authenticated request
func authedAs(adminID uuid.UUID, role identity.Role, perms ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := uuid.New()
		c.Set(middleware.AdminIDKey, adminID)
		c.Set(middleware.SessionIDKey, sessionID)
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "token-" + sessionID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			SessionID:   sessionID.String(),
			AdminID:     adminID.String(),
			Role:        string(role),
			Permissions: identity.PermissionStrings(perms),
		})
		c.Set(middleware.SessionKey, &identity.Session{
			ID:          sessionID,
			Admin:       identity.SessionAdmin{ID: adminID, Role: role, Status: identity.AdminStatusApproved},
			Permissions: perms,
			IssuedAt:    time.Now(),
			ExpiresAt:   time.Now().Add(identity.SessionTTL),
		})
		c.Next()
	}
}

// doRequest serves one request through r and decodes the envelope
func doRequest(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// dataMap returns the envelope data as a JSON object
func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}
