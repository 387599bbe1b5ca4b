package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/warrantyhub/backend/internal/application/catalog"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
)

// imageFormField is the multipart field carrying a product image
const imageFormField = "image"

// ProductHandler handles product and product-instance endpoints
type ProductHandler struct {
	BaseHandler
	products      ProductService
	admins        AdminService
	maxImageBytes int64
}

// NewProductHandler creates a new ProductHandler. admins enforces the
// subscription limits on creation; maxImageBytes caps image uploads.
func NewProductHandler(products ProductService, admins AdminService, maxImageBytes int64) *ProductHandler {
	return &ProductHandler{
		products:      products,
		admins:        admins,
		maxImageBytes: maxImageBytes,
	}
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, products, len(products))
}

// GetByID godoc
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
// @Summary      Create a product
// @Description  Creates the product and initial_quantity units (default 1) with fresh codes
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.CreateProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	products, err := h.products.CountProducts(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.admins.EnsureWithinLimit(ctx, middleware.GetAdminID(c), identity.ResourceProducts, products, 1); err != nil {
		h.HandleError(c, err)
		return
	}

	quantity := 1
	if req.InitialQuantity != nil {
		quantity = *req.InitialQuantity
	}
	if quantity > 0 && !h.withinInstanceLimit(c, quantity) {
		return
	}

	resp, err := h.products.Create(ctx, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Removes the product with its units and their registrations
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.DeleteProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.products.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UploadImage godoc
// @Summary      Upload a product image
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        image formData file true "Image file"
// @Success      200 {object} dto.Response{data=catalogapp.ImageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/image [post]
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile(imageFormField)
	if err != nil {
		h.BadRequest(c, "Multipart field \""+imageFormField+"\" is required")
		return
	}
	if h.maxImageBytes > 0 && header.Size > h.maxImageBytes {
		h.Error(c, http.StatusBadRequest, "INVALID_IMAGE", fmt.Sprintf("Image cannot exceed %d bytes", h.maxImageBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to open uploaded image: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to read uploaded image: %w", err))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	resp, err := h.products.UploadImage(c.Request.Context(), id, catalogapp.UploadImageRequest{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListInstances godoc
// @Summary      List product instances
// @Tags         instances
// @Produce      json
// @Param        product_id query string false "Only units of this product" format(uuid)
// @Param        is_registered query bool false "Filter by registration state"
// @Success      200 {object} dto.Response{data=[]catalogapp.InstanceResponse}
// @Security     BearerAuth
// @Router       /instances [get]
func (h *ProductHandler) ListInstances(c *gin.Context) {
	var filter catalogapp.InstanceListFilter
	if v := c.Query("product_id"); v != "" {
		productID, err := uuid.Parse(v)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid product_id format")
			return
		}
		filter.ProductID = &productID
	}
	if v := c.Query("is_registered"); v != "" {
		registered, err := strconv.ParseBool(v)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFailed, "Query parameter \"is_registered\" must be a boolean")
			return
		}
		filter.IsRegistered = &registered
	}

	instances, err := h.products.ListInstances(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, instances, len(instances))
}

// GenerateInstances godoc
// @Summary      Generate more units for a product
// @Tags         instances
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.GenerateInstancesRequest true "Quantity"
// @Success      201 {object} dto.Response{data=[]catalogapp.InstanceResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/instances [post]
func (h *ProductHandler) GenerateInstances(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.GenerateInstancesRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.withinInstanceLimit(c, req.Quantity) {
		return
	}

	instances, err := h.products.GenerateInstances(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewListResponse(instances, len(instances)))
}

// GetInstanceByQRCode godoc
// @Summary      Find a unit by QR code
// @Tags         instances
// @Produce      json
// @Param        code path string true "QR code"
// @Success      200 {object} dto.Response{data=catalogapp.InstanceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /instances/qr/{code} [get]
func (h *ProductHandler) GetInstanceByQRCode(c *gin.Context) {
	h.instance(c, h.products.GetInstanceByQRCode)
}

// GetInstanceByBarcode godoc
// @Summary      Find a unit by barcode
// @Tags         instances
// @Produce      json
// @Param        code path string true "Barcode"
// @Success      200 {object} dto.Response{data=catalogapp.InstanceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /instances/barcode/{code} [get]
func (h *ProductHandler) GetInstanceByBarcode(c *gin.Context) {
	h.instance(c, h.products.GetInstanceByBarcode)
}

// GetInstanceBySerialNumber godoc
// @Summary      Find a unit by serial number
// @Tags         instances
// @Produce      json
// @Param        code path string true "Serial number"
// @Success      200 {object} dto.Response{data=catalogapp.InstanceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /instances/serial/{code} [get]
func (h *ProductHandler) GetInstanceBySerialNumber(c *gin.Context) {
	h.instance(c, h.products.GetInstanceBySerialNumber)
}

func (h *ProductHandler) instance(c *gin.Context, find func(ctx context.Context, code string) (*catalogapp.InstanceResponse, error)) {
	instance, err := find(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, instance)
}

// withinInstanceLimit checks the qrCodes quota for count new units
func (h *ProductHandler) withinInstanceLimit(c *gin.Context, count int) bool {
	ctx := c.Request.Context()
	current, err := h.products.CountInstances(ctx)
	if err != nil {
		h.HandleError(c, err)
		return false
	}
	if err := h.admins.EnsureWithinLimit(ctx, middleware.GetAdminID(c), identity.ResourceQRCodes, current, count); err != nil {
		h.HandleError(c, err)
		return false
	}
	return true
}
