package router

import (
	"github.com/gin-gonic/gin"
	"github.com/warrantyhub/backend/internal/domain/identity"
	"github.com/warrantyhub/backend/internal/interfaces/http/handler"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers served under /api/v1
type Handlers struct {
	Auth       *handler.AuthHandler
	Products   *handler.ProductHandler
	Warranties *handler.WarrantyHandler
	Admins     *handler.AdminHandler
	System     *handler.SystemHandler
}

// APIConfig configures authentication and throttling of the API groups
type APIConfig struct {
	JWT        middleware.JWTMiddlewareConfig
	Permission middleware.PermissionConfig
	// PublicLimiter throttles unauthenticated endpoints. Nil disables it.
	PublicLimiter *middleware.RateLimiter
}

// APIGroups builds the route groups of the warranty API
func APIGroups(h Handlers, cfg APIConfig) []RouteRegistrar {
	authn := middleware.JWTAuth(cfg.JWT)
	perm := func(p identity.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(p, cfg.Permission)
	}
	selfOr := func(p identity.Permission) gin.HandlerFunc {
		return middleware.RequireSelfOrPermission("id", cfg.Permission, p)
	}

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)
	system.GET("/system/ping", h.System.Ping)

	public := NewDomainGroup("public", "")
	if cfg.PublicLimiter != nil {
		public.Use(middleware.RateLimit(cfg.PublicLimiter))
	}
	public.POST("/auth/register", h.Auth.Register)
	public.POST("/auth/login", h.Auth.Login)
	public.GET("/plans", h.Auth.Plans)
	public.GET("/public/instances/lookup", h.Warranties.Lookup)
	public.POST("/public/warranties", h.Warranties.Register)

	session := NewDomainGroup("auth", "/auth").Use(authn)
	session.POST("/logout", h.Auth.Logout)
	session.GET("/session", h.Auth.Session)
	session.GET("/permissions/:permission", h.Auth.CheckPermission)

	products := NewDomainGroup("products", "/products").Use(authn)
	products.GET("", perm(identity.PermProductsView), h.Products.List)
	products.GET("/:id", perm(identity.PermProductsView), h.Products.GetByID)
	products.POST("", perm(identity.PermProductsCreate), h.Products.Create)
	products.PUT("/:id", perm(identity.PermProductsEdit), h.Products.Update)
	products.DELETE("/:id", perm(identity.PermProductsEdit), h.Products.Delete)
	products.POST("/:id/image", perm(identity.PermProductsEdit), h.Products.UploadImage)
	products.POST("/:id/instances", perm(identity.PermQRCodesGenerate), h.Products.GenerateInstances)

	instances := NewDomainGroup("instances", "/instances").Use(authn, perm(identity.PermProductsView))
	instances.GET("", h.Products.ListInstances)
	instances.GET("/qr/:code", h.Products.GetInstanceByQRCode)
	instances.GET("/barcode/:code", h.Products.GetInstanceByBarcode)
	instances.GET("/serial/:code", h.Products.GetInstanceBySerialNumber)

	warranties := NewDomainGroup("warranties", "/warranties").Use(authn, perm(identity.PermWarrantiesView))
	warranties.GET("", h.Warranties.List)
	warranties.GET("/:id", h.Warranties.GetByID)
	warranties.GET("/instance/:id", h.Warranties.GetByInstance)
	warranties.GET("/:id/certificate", h.Warranties.Certificate)

	admins := NewDomainGroup("admins", "/admins").Use(authn)
	admins.GET("", perm(identity.PermAdminsView), h.Admins.List)
	admins.GET("/pending", perm(identity.PermAdminsView), h.Admins.ListPending)
	admins.GET("/:id", selfOr(identity.PermAdminsView), h.Admins.GetByID)
	admins.POST("/:id/approve", perm(identity.PermAdminsApprove), h.Admins.Approve)
	admins.POST("/:id/suspend", perm(identity.PermAdminsSuspend), h.Admins.Suspend)
	admins.DELETE("/:id", perm(identity.PermAdminsDelete), h.Admins.Delete)
	admins.PUT("/:id", selfOr(identity.PermAdminsEdit), h.Admins.Update)
	admins.PUT("/:id/password", selfOr(identity.PermAdminsEdit), h.Admins.ChangePassword)
	admins.PUT("/:id/subscription", perm(identity.PermSubscriptionsManage), h.Admins.UpdateSubscription)
	admins.GET("/:id/limits/:resource", selfOr(identity.PermAdminsView), h.Admins.Limits)

	return []RouteRegistrar{system, public, session, products, instances, warranties, admins}
}
