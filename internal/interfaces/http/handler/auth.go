package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles signup, login and the current session
type AuthHandler struct {
	BaseHandler
	auth   AuthService
	admins AdminService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthService, admins AdminService) *AuthHandler {
	return &AuthHandler{auth: auth, admins: admins}
}

// PermissionCheckResponse answers a permission check
type PermissionCheckResponse struct {
	Permission string `json:"permission" example:"products.create"`
	Granted    bool   `json:"granted" example:"true"`
}

// Register godoc
// @Summary      Register an admin account
// @Description  Self-service signup. The account starts pending until a superadmin approves it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RegisterAdminRequest true "Signup request"
// @Success      201 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identityapp.RegisterAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.admins.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, admin)
}

// Login godoc
// @Summary      Log in
// @Description  Authenticate by username or email. Replaces the current session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=identityapp.LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Logout godoc
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	req := identityapp.LogoutRequest{
		SessionID: middleware.GetSessionID(c),
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		req.ExpiresAt = claims.ExpiresAt.Time
	} else {
		req.ExpiresAt = time.Now().Add(identity.SessionTTL)
	}

	if err := h.auth.Logout(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}

// Session godoc
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.SessionResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	session, err := h.auth.CurrentSession(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// CheckPermission godoc
// @Summary      Check a permission against the current session
// @Tags         auth
// @Produce      json
// @Param        permission path string true "Permission name" example(products.create)
// @Success      200 {object} dto.Response{data=PermissionCheckResponse}
// @Security     BearerAuth
// @Router       /auth/permissions/{permission} [get]
func (h *AuthHandler) CheckPermission(c *gin.Context) {
	permission := identity.Permission(c.Param("permission"))

	granted, err := h.auth.HasPermission(c.Request.Context(), permission)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PermissionCheckResponse{Permission: string(permission), Granted: granted})
}

// Plans godoc
// @Summary      Subscription plans
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.PlanResponse}
// @Router       /plans [get]
func (h *AuthHandler) Plans(c *gin.Context) {
	plans := h.admins.Plans()
	h.SuccessList(c, plans, len(plans))
}
