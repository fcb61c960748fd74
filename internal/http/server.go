package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"boardshop/internal/metrics"
	"boardshop/internal/service"
	"boardshop/internal/session"
)

// Services зависимости HTTP-слоя
type Services struct {
	Catalog  *service.CatalogService
	Carts    *service.CartService
	Orders   *service.OrderService
	Accounts *service.AccountService
	Sessions *session.Manager
	Metrics  *metrics.Metrics
}

type Options struct {
	// MaxQuantityPerRequest caps a single add-to-cart request. Zero disables the cap.
	MaxQuantityPerRequest int64
}

type Server struct {
	engine   *gin.Engine
	catalog  *service.CatalogService
	carts    *service.CartService
	orders   *service.OrderService
	accounts *service.AccountService
	sessions *session.Manager
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
}

func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware())
	}

	s := &Server{
		engine:   r,
		catalog:  svc.Catalog,
		carts:    svc.Carts,
		orders:   svc.Orders,
		accounts: svc.Accounts,
		sessions: svc.Sessions,
		metrics:  svc.Metrics,
		logger:   logger,
		opts:     opts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/health", s.health)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.engine.Group("/api/v1")
	v1.POST("/sessions", s.createSession)

	api := v1.Group("")
	api.Use(s.requireSession())
	{
		api.GET("/products", s.listProducts)
		api.GET("/products/:id", s.getProduct)
		api.GET("/categories", s.listCategories)

		cart := api.Group("/cart")
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.PUT("/items/:product_id", s.setCartItem)
		cart.DELETE("/items/:product_id", s.removeCartItem)
		cart.DELETE("", s.clearCart)

		api.POST("/checkout", s.checkout)
		api.GET("/orders/last", s.getLastOrder)
		api.GET("/orders/:number", s.getOrder)

		auth := api.Group("/auth")
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)
		auth.GET("/me", s.me)
		auth.PUT("/me", s.updateMe)
		auth.GET("/remembered", s.remembered)
		auth.POST("/recovery/code", s.sendRecoveryCode)
		auth.POST("/recovery/verify", s.verifyRecoveryCode)
		auth.POST("/recovery/reset", s.resetPassword)

		admin := api.Group("/admin")
		admin.POST("/login", s.adminLogin)
		admin.POST("/logout", s.adminLogout)
		admin.GET("/users", s.adminUsers)
		admin.GET("/stats", s.adminStats)
		admin.DELETE("/users/:id", s.adminDeleteUser)
	}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
