package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/auth"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/logger"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/handler"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/middleware"
)

// Handlers bundles the storefront's HTTP handlers
type Handlers struct {
	System    *handler.SystemHandler
	Auth      *handler.AuthHandler
	Product   *handler.ProductHandler
	Cart      *handler.CartHandler
	GuestCart *handler.GuestCartHandler
	Order     *handler.OrderHandler
}

// Config is the HTTP surface configuration
type Config struct {
	ServiceName string
	HTTP        config.HTTPConfig
	Swagger     config.SwaggerConfig
	Tracing     bool
	HSTS        bool
}

// Security carries the authentication collaborators
type Security struct {
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	// Limiter is nil when rate limiting is disabled
	Limiter middleware.Limiter
}

// NewEngine builds the gin engine with the global middleware chain and every
// storefront route mounted under /api/v1.
func NewEngine(cfg Config, sec Security, h Handlers, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("invalid trusted proxies, ignoring", zap.Error(err))
		}
	}

	engine.Use(
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(cfg.HSTS),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authn := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     sec.JWT,
		TokenBlacklist: sec.Blacklist,
		Logger:         log,
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	if sec.Limiter != nil {
		r.Use(middleware.RateLimit(sec.Limiter, log))
	}
	r.Register(asRegistrars(DomainGroups(h, authn))...)
	r.Setup()

	return engine
}

// DomainGroups declares the storefront routes. authn authenticates the caller;
// admin groups additionally require the admin role.
func DomainGroups(h Handlers, authn gin.HandlerFunc) []*DomainGroup {
	system := NewDomainGroup("system", "").Use(middleware.SpanAttributes())
	system.GET("/health", h.System.Health)
	system.GET("/health/ready", h.System.Ready)
	system.GET("/system/info", h.System.GetSystemInfo)

	authRoutes := NewDomainGroup("auth", "/auth").Use(authn, middleware.SpanAttributes())
	authRoutes.GET("/me", h.Auth.GetCurrentUser)
	authRoutes.POST("/logout", h.Auth.Logout)

	products := NewDomainGroup("catalog", "/products").Use(middleware.SpanAttributes())
	products.GET("", h.Product.List)
	products.GET("/:id", h.Product.GetByID)

	guestCart := NewDomainGroup("guest-cart", "/guest-cart").Use(middleware.SpanAttributes())
	guestCart.GET("", h.GuestCart.Get)
	guestCart.DELETE("", h.GuestCart.Clear)
	guestCart.POST("/items", h.GuestCart.AddItem)
	guestCart.PUT("/items/:productId", h.GuestCart.UpdateQuantity)
	guestCart.DELETE("/items/:productId", h.GuestCart.RemoveItem)

	cart := NewDomainGroup("cart", "/cart").Use(authn, middleware.SpanAttributes())
	cart.GET("", h.Cart.Get)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:productId", h.Cart.UpdateQuantity)
	cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	cart.POST("/merge", h.Cart.Merge)

	orders := NewDomainGroup("orders", "/orders").Use(authn, middleware.SpanAttributes())
	orders.POST("", h.Order.Checkout)
	orders.GET("", h.Order.List)
	orders.POST("/capture", h.Order.Capture)
	orders.GET("/:id", h.Order.Get)
	orders.POST("/:id/cancel", h.Order.Cancel)

	admin := NewDomainGroup("admin", "/admin").Use(authn, middleware.RequireAdmin(), middleware.SpanAttributes())
	adminOrders := admin.Group("admin-orders", "/orders")
	adminOrders.GET("", h.Order.AdminList)
	adminOrders.GET("/:id", h.Order.AdminGet)
	adminOrders.PUT("/:id/status", h.Order.UpdateStatus)
	adminProducts := admin.Group("admin-products", "/products")
	adminProducts.POST("", h.Product.Create)
	adminProducts.PUT("/:id/prices", h.Product.UpdatePrices)
	adminProducts.PUT("/:id/stock", h.Product.Restock)

	return []*DomainGroup{system, authRoutes, products, guestCart, cart, orders, admin}
}

func asRegistrars(groups []*DomainGroup) []RouteRegistrar {
	out := make([]RouteRegistrar, len(groups))
	for i, g := range groups {
		out[i] = g
	}
	return out
}
