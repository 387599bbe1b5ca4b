package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
)

func authRouter(authSvc *MockAuthService, admins *MockAdminService, callerID uuid.UUID) *gin.Engine {
	h := NewAuthHandler(authSvc, admins)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/plans", h.Plans)
	r.POST("/auth/logout/anonymous", h.Logout)

	authed := r.Group("", authedAs(callerID, identity.RoleAdmin, identity.PermProductsView))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/session", h.Session)
	authed.GET("/auth/permissions/:permission", h.CheckPermission)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	body := `{"username":"alice","email":"alice@example.com","password":"s3cret-pass","confirm_password":"s3cret-pass"}`

	t.Run("pending account created", func(t *testing.T) {
		admins := new(MockAdminService)
		admins.On("Register", mock.Anything, mock.MatchedBy(func(req identityapp.RegisterAdminRequest) bool {
			return req.Username == "alice" && req.Plan == ""
		})).Return(sampleAdmin(identity.AdminStatusPending), nil)

		w, resp := doRequest(t, authRouter(new(MockAuthService), admins, uuid.New()), http.MethodPost, "/auth/register", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "pending", dataMap(t, resp)["status"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		admins := new(MockAdminService)
		admins.On("Register", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken"))

		w, resp := doRequest(t, authRouter(new(MockAuthService), admins, uuid.New()), http.MethodPost, "/auth/register", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Username is already taken", resp.Error.Message)
	})

	t.Run("short password", func(t *testing.T) {
		admins := new(MockAdminService)

		w, resp := doRequest(t, authRouter(new(MockAuthService), admins, uuid.New()), http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"short","confirm_password":"short"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "password", resp.Error.Details[0].Field)
		admins.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns the token and session", func(t *testing.T) {
		authSvc := new(MockAuthService)
		expires := time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC)
		authSvc.On("Login", mock.Anything, identityapp.LoginRequest{Login: "alice", Password: "s3cret-pass"}).Return(&identityapp.LoginResponse{
			AccessToken: "signed.jwt.token",
			TokenType:   "Bearer",
			ExpiresAt:   expires,
			Session: identityapp.SessionResponse{
				ID:          uuid.New(),
				Username:    "alice",
				Permissions: []string{string(identity.PermDashboardView)},
			},
		}, nil)

		w, resp := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodPost, "/auth/login",
			`{"login":"alice","password":"s3cret-pass"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, resp)
		assert.Equal(t, "signed.jwt.token", data["access_token"])
		assert.Equal(t, "Bearer", data["token_type"])
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad credentials", identityapp.ErrInvalidCredentials, http.StatusUnauthorized},
		{"pending account", identityapp.ErrAccountPending, http.StatusForbidden},
		{"suspended account", identityapp.ErrAccountSuspended, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := new(MockAuthService)
			authSvc.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)

			w, _ := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodPost, "/auth/login",
				`{"login":"alice","password":"whatever"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("revokes the presented token", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("Logout", mock.Anything, mock.MatchedBy(func(req identityapp.LogoutRequest) bool {
			return req.SessionID != uuid.Nil &&
				req.TokenID == "token-"+req.SessionID.String() &&
				req.ExpiresAt.After(time.Now())
		})).Return(nil)

		w, _ := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodPost, "/auth/logout", "")

		assert.Equal(t, http.StatusOK, w.Code)
		authSvc.AssertExpectations(t)
	})

	t.Run("requires claims", func(t *testing.T) {
		authSvc := new(MockAuthService)

		w, resp := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodPost, "/auth/logout/anonymous", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
		authSvc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Session(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("CurrentSession", mock.Anything).Return(&identityapp.SessionResponse{
			ID:       uuid.New(),
			Username: "alice",
			Role:     identity.RoleAdmin,
		}, nil)

		w, resp := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodGet, "/auth/session", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", dataMap(t, resp)["username"])
	})

	t.Run("expired", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("CurrentSession", mock.Anything).Return(nil, shared.ErrSessionExpired)

		w, resp := doRequest(t, authRouter(authSvc, new(MockAdminService), uuid.New()), http.MethodGet, "/auth/session", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, shared.CodeSessionExpired, resp.Error.Code)
	})
}

func TestAuthHandler_CheckPermission(t *testing.T) {
	authSvc := new(MockAuthService)
	authSvc.On("HasPermission", mock.Anything, identity.PermProductsView).Return(true, nil)
	authSvc.On("HasPermission", mock.Anything, identity.PermAdminsDelete).Return(false, nil)
	r := authRouter(authSvc, new(MockAdminService), uuid.New())

	w, resp := doRequest(t, r, http.MethodGet, "/auth/permissions/"+string(identity.PermProductsView), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataMap(t, resp)["granted"])

	w, resp = doRequest(t, r, http.MethodGet, "/auth/permissions/"+string(identity.PermAdminsDelete), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataMap(t, resp)["granted"])
	assert.Equal(t, string(identity.PermAdminsDelete), dataMap(t, resp)["permission"])
}

func TestAuthHandler_Plans(t *testing.T) {
	admins := new(MockAdminService)
	admins.On("Plans").Return([]identityapp.PlanResponse{
		{ID: identity.PlanBasic, Name: "Basic", Price: decimal.NewFromFloat(9.99), DurationMonths: 1},
		{ID: identity.PlanPremium, Name: "Premium", Price: decimal.NewFromFloat(29.99), DurationMonths: 1},
	})

	w, resp := doRequest(t, authRouter(new(MockAuthService), admins, uuid.New()), http.MethodGet, "/plans", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Meta.Total)
}
