package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warrantyhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Health states
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	products  ProductService
	name      string
	version   string
	store     string
	startTime time.Time
	now       func() time.Time
	logger    *zap.Logger
}

// SystemInfo describes the running server
type SystemInfo struct {
	Name    string
	Version string
	Store   string
}

// NewSystemHandler creates a new SystemHandler. products backs the
// catalog counts reported by the health check.
func NewSystemHandler(products ProductService, info SystemInfo, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{
		products:  products,
		name:      info.Name,
		version:   info.Version,
		store:     info.Store,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Warranty Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports store reachability with product and unit counts
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.HealthResponse}
// @Failure      503 {object} dto.Response{data=dto.HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	resp := dto.HealthResponse{
		Status:    HealthStatusOK,
		Version:   h.version,
		Store:     h.store,
		Timestamp: h.now().UTC(),
	}

	products, err := h.products.CountProducts(ctx)
	if err == nil {
		resp.Products = products
		resp.Instances, err = h.products.CountInstances(ctx)
	}
	if err != nil {
		h.logger.Warn("Health check failed", zap.String("store", h.store), zap.Error(err))
		resp.Status = HealthStatusDegraded
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}

	h.Success(c, resp)
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=PingResponse}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: h.now().Format(time.RFC3339),
	})
}
