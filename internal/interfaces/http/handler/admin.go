package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
)

// AdminHandler handles the admin directory endpoints
type AdminHandler struct {
	BaseHandler
	admins AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admins AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// List godoc
// @Summary      List admins
// @Tags         admins
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.AdminResponse}
// @Security     BearerAuth
// @Router       /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, admins, len(admins))
}

// ListPending godoc
// @Summary      List admins awaiting approval
// @Tags         admins
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.AdminResponse}
// @Security     BearerAuth
// @Router       /admins/pending [get]
func (h *AdminHandler) ListPending(c *gin.Context) {
	admins, err := h.admins.ListPending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, admins, len(admins))
}

// GetByID godoc
// @Summary      Get an admin
// @Tags         admins
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id} [get]
func (h *AdminHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	admin, err := h.admins.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}

// Approve godoc
// @Summary      Approve a pending admin
// @Tags         admins
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	admin, err := h.admins.Approve(c.Request.Context(), id, middleware.GetAdminID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}

// Suspend godoc
// @Summary      Suspend an admin
// @Description  Suspension revokes the admin's outstanding tokens
// @Tags         admins
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id}/suspend [post]
func (h *AdminHandler) Suspend(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	admin, err := h.admins.Suspend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}

// Delete godoc
// @Summary      Delete an admin
// @Tags         admins
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.admins.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Admin deleted"})
}

// Update godoc
// @Summary      Update an admin profile
// @Description  Admins may edit their own profile. Changing the role requires a superadmin.
// @Tags         admins
// @Accept       json
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Param        request body identityapp.UpdateProfileRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identityapp.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := identityapp.Actor{
		AdminID:      middleware.GetAdminID(c),
		IsSuperAdmin: middleware.IsSuperAdmin(c),
	}
	admin, err := h.admins.UpdateProfile(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}

// ChangePassword godoc
// @Summary      Change an admin password
// @Tags         admins
// @Accept       json
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Param        request body identityapp.ChangePasswordRequest true "New credentials"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id}/password [put]
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identityapp.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.admins.ChangePassword(c.Request.Context(), id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Password changed"})
}

// UpdateSubscription godoc
// @Summary      Change an admin subscription
// @Tags         admins
// @Accept       json
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Param        request body identityapp.UpdateSubscriptionRequest true "Plan and duration"
// @Success      200 {object} dto.Response{data=identityapp.AdminResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id}/subscription [put]
func (h *AdminHandler) UpdateSubscription(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identityapp.UpdateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := h.admins.UpdateSubscription(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}

// Limits godoc
// @Summary      Check a subscription limit
// @Tags         admins
// @Produce      json
// @Param        id path string true "Admin ID" format(uuid)
// @Param        resource path string true "Resource" Enums(products, qrCodes, warranties)
// @Param        current query int false "Current count" default(0)
// @Success      200 {object} dto.Response{data=identityapp.LimitCheckResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admins/{id}/limits/{resource} [get]
func (h *AdminHandler) Limits(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	current, err := strconv.Atoi(c.DefaultQuery("current", "0"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFailed, "Query parameter \"current\" must be an integer")
		return
	}

	check, err := h.admins.CheckSubscriptionLimits(c.Request.Context(), id, identity.ResourceType(c.Param("resource")), current)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}
