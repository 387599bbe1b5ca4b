package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	warrantyapp "github.com/warrantyhub/backend/internal/application/warranty"
)

// WarrantyHandler handles the public registration flow and the admin
// registration views
type WarrantyHandler struct {
	BaseHandler
	registrations RegistrationService
}

// NewWarrantyHandler creates a new WarrantyHandler
func NewWarrantyHandler(registrations RegistrationService) *WarrantyHandler {
	return &WarrantyHandler{registrations: registrations}
}

// Lookup godoc
// @Summary      Look up a unit by any of its codes
// @Description  Resolves a QR code, barcode or serial number to the unit, its product and its registration
// @Tags         warranties
// @Produce      json
// @Param        code query string true "QR code, barcode or serial number"
// @Success      200 {object} dto.Response{data=warrantyapp.LookupResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /public/instances/lookup [get]
func (h *WarrantyHandler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		h.BadRequest(c, "Query parameter \"code\" is required")
		return
	}

	resp, err := h.registrations.Lookup(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Register godoc
// @Summary      Register a warranty
// @Description  Customer-facing registration of an unregistered unit
// @Tags         warranties
// @Accept       json
// @Produce      json
// @Param        request body warrantyapp.RegisterWarrantyRequest true "Registration"
// @Success      201 {object} dto.Response{data=warrantyapp.RegistrationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /public/warranties [post]
func (h *WarrantyHandler) Register(c *gin.Context) {
	var req warrantyapp.RegisterWarrantyRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.registrations.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @Summary      List warranty registrations
// @Description  Statuses are recomputed against the current date
// @Tags         warranties
// @Produce      json
// @Success      200 {object} dto.Response{data=[]warrantyapp.RegistrationResponse}
// @Security     BearerAuth
// @Router       /warranties [get]
func (h *WarrantyHandler) List(c *gin.Context) {
	registrations, err := h.registrations.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, registrations, len(registrations))
}

// GetByID godoc
// @Summary      Get a warranty registration
// @Tags         warranties
// @Produce      json
// @Param        id path string true "Registration ID" format(uuid)
// @Success      200 {object} dto.Response{data=warrantyapp.RegistrationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /warranties/{id} [get]
func (h *WarrantyHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.registrations.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByInstance godoc
// @Summary      Get the registration of a unit
// @Tags         warranties
// @Produce      json
// @Param        id path string true "Product instance ID" format(uuid)
// @Success      200 {object} dto.Response{data=warrantyapp.RegistrationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /warranties/instance/{id} [get]
func (h *WarrantyHandler) GetByInstance(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.registrations.GetByInstanceID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Certificate godoc
// @Summary      Download a warranty certificate
// @Tags         warranties
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Registration ID" format(uuid)
// @Param        format query string false "html or pdf" Enums(html, pdf)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /warranties/{id}/certificate [get]
func (h *WarrantyHandler) Certificate(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	format := warrantyapp.CertificateFormat(strings.ToLower(c.DefaultQuery("format", string(warrantyapp.CertificateHTML))))

	result, err := h.registrations.Certificate(c.Request.Context(), id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	disposition := "inline"
	if format == warrantyapp.CertificatePDF {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, result.FileName))
	if result.ArchiveKey != "" {
		c.Header("X-Archive-Key", result.ArchiveKey)
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
