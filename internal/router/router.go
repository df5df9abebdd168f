package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viznest/viznest-backend/config"
	"github.com/viznest/viznest-backend/internal/app/controller"
	"github.com/viznest/viznest-backend/internal/metrics"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/validation"
)

// Controllers groups the HTTP handlers mounted by the router
type Controllers struct {
	Auth        *controller.AuthController
	Address     *controller.AddressController
	Product     *controller.ProductController
	Review      *controller.ReviewController
	Cart        *controller.CartController
	Order       *controller.OrderController
	Wishlist    *controller.WishlistController
	Upload      *controller.UploadController
	OrderEvents *controller.OrderEventsController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	httpMetrics    *metrics.HTTPMetrics
	gatherer       prometheus.Gatherer
	config         *config.Config
}

// NewRouter builds the router. gatherer may be nil, in which case /metrics is not served.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		httpMetrics:    httpMetrics,
		gatherer:       gatherer,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	validation.Register()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(r.httpMetrics.Middleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "VizNest API is running",
		})
	})
	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	// uploads live on local disk only when no bucket is configured
	if !r.config.S3.UsesS3() {
		router.Static("/uploads", r.config.Storage.LocalDir)
	}

	authenticate := r.authMiddleware.Authenticate()
	requireAdmin := r.authMiddleware.RequireAdmin()
	ctrl := r.controllers

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctrl.Auth.Register)
			auth.POST("/login", ctrl.Auth.Login)
			auth.POST("/refresh", ctrl.Auth.RefreshToken)
			auth.POST("/logout", authenticate, ctrl.Auth.Logout)
			auth.GET("/profile", authenticate, ctrl.Auth.GetMe)
			auth.PUT("/profile", authenticate, ctrl.Auth.UpdateMe)
			auth.POST("/avatar", authenticate, ctrl.Auth.UploadAvatar)

			auth.GET("/address", authenticate, ctrl.Address.ListAddresses)
			auth.POST("/address", authenticate, ctrl.Address.AddAddress)
			auth.PUT("/address/:id", authenticate, ctrl.Address.UpdateAddress)
			auth.DELETE("/address/:id", authenticate, ctrl.Address.DeleteAddress)
			auth.PUT("/address/:id/primary", authenticate, ctrl.Address.SetPrimary)
		}

		products := v1.Group("/products")
		{
			products.GET("", ctrl.Product.ListProducts)
			products.GET("/categories", ctrl.Product.ListCategories)
			products.GET("/:id", ctrl.Product.GetProductByID)
			products.GET("/:id/preview", ctrl.Product.Preview)
			products.GET("/:id/reviews", ctrl.Review.ListReviews)

			products.POST("", authenticate, requireAdmin, ctrl.Product.CreateProduct)
			products.PUT("/:id", authenticate, requireAdmin, ctrl.Product.UpdateProduct)
			products.DELETE("/:id", authenticate, requireAdmin, ctrl.Product.DeleteProduct)

			products.POST("/:id/reviews", authenticate, ctrl.Review.CreateReview)
			products.PUT("/:id/reviews/:reviewId", authenticate, ctrl.Review.UpdateReview)
			products.DELETE("/:id/reviews/:reviewId", authenticate, ctrl.Review.DeleteReview)
		}

		// guests reach the cart with X-Guest-Session; POST issues one when absent
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate())
		{
			cart.GET("", middleware.CartSession(false), ctrl.Cart.GetCart)
			cart.POST("", middleware.CartSession(true), ctrl.Cart.AddToCart)
			cart.PUT("/:itemId", middleware.CartSession(false), ctrl.Cart.UpdateCartItem)
			cart.DELETE("/:itemId", middleware.CartSession(false), ctrl.Cart.RemoveFromCart)
			cart.DELETE("", middleware.CartSession(false), ctrl.Cart.ClearCart)
			cart.POST("/merge", authenticate, ctrl.Cart.MergeCart)
		}

		orders := v1.Group("/orders")
		orders.Use(authenticate)
		{
			orders.POST("", ctrl.Order.CreateOrder)
			orders.GET("/myorders", ctrl.Order.GetMyOrders)
			orders.GET("/all", requireAdmin, ctrl.Order.GetAllOrders)
			orders.GET("/export", requireAdmin, ctrl.Order.ExportOrders)
			orders.GET("/:id", ctrl.Order.GetOrderByID)
			orders.PUT("/:id", requireAdmin, ctrl.Order.UpdateOrderStatus)
			orders.GET("/:id/invoice", ctrl.Order.GetInvoice)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(authenticate)
		{
			wishlist.GET("", ctrl.Wishlist.GetWishlist)
			wishlist.POST("", ctrl.Wishlist.ToggleWishlist)
		}

		upload := v1.Group("/upload")
		upload.Use(authenticate)
		{
			upload.POST("/presigned-url", ctrl.Upload.GeneratePresignedURL)
		}

		v1.GET("/ws/orders", r.authMiddleware.AuthenticateUpgrade(), ctrl.OrderEvents.Subscribe)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept", "Authorization",
			"Cache-Control", "X-Requested-With", middleware.GuestSessionHeader, middleware.RequestIDHeader,
		},
		ExposeHeaders:    []string{middleware.GuestSessionHeader, middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
