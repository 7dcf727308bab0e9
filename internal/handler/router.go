package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/middleware"
	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/service"
)

type RouterConfig struct {
	JWTSecret       string
	CartCookie      string
	CartTTL         time.Duration
	CartSecure      bool
	DefaultCurrency currency.Code
	Rates           currency.RateSource
	Metrics         *middleware.Metrics
	Health          *HealthHandler
}

type Services struct {
	Auth     *service.AuthService
	Role     *service.RoleService
	User     *service.UserService
	Product  *service.ProductService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Order    *service.OrderService
}

func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	authH := NewAuthHandler(svc.Auth)
	productH := NewProductHandler(svc.Product)
	cartH := NewCartHandler(svc.Cart)
	checkoutH := NewCheckoutHandler(svc.Checkout, svc.Cart)
	orderH := NewOrderHandler(svc.Order)
	adminH := NewAdminHandler(svc.Order, svc.User)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Health != nil {
		router.GET("/healthz", cfg.Health.Healthz)
		router.GET("/readyz", cfg.Health.Readyz)
	}

	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret, svc.Role)
	session := middleware.CartSession(cfg.CartCookie, cfg.CartTTL, cfg.CartSecure)

	v1 := router.Group("/api/v1", middleware.Currency(cfg.Rates, cfg.DefaultCurrency))
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/me", requireAuth, authH.Me)

		v1.GET("/currencies", ListCurrencies)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		seller := v1.Group("/seller/products", requireAuth, middleware.RequireRole(model.RoleSeller, model.RoleAdmin))
		seller.GET("", productH.ListMine)
		seller.POST("", productH.Create)
		seller.PUT("/:id", productH.Update)
		seller.DELETE("/:id", productH.Delete)

		cart := v1.Group("/cart", session)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:productId", cartH.UpdateItem)
		cart.DELETE("/items/:productId", cartH.DeleteItem)

		v1.POST("/checkout", requireAuth, session, checkoutH.Checkout)

		orders := v1.Group("/orders", requireAuth)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)

		admin := v1.Group("/admin", requireAuth, middleware.AdminOnly())
		admin.GET("/orders", adminH.ListOrders)
		admin.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)
		admin.GET("/users", adminH.ListUsers)
		admin.PATCH("/users/:id/role", adminH.UpdateUserRole)
	}

	return router
}
