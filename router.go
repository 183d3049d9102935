package main

import (
	"github.com/arunvm123/bookstore/cache"
	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/notification"
	"github.com/arunvm123/bookstore/repository/postgres"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the long-lived components the API is built from. Their
// lifecycle belongs to main.
type Dependencies struct {
	Config    *config.Config
	Repos     *postgres.Repositories
	Cache     cache.Store
	Catalog   CatalogService
	Publisher notification.Publisher
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Log

	// Initialize JWT service
	jwtService := NewJWTService(cfg.JWTSecret, cfg.Auth.TokenTTL())
	n := notifier{publisher: deps.Publisher, log: log}

	// Initialize handlers
	healthHandler := NewHealthHandler(deps.Repos, deps.Cache)
	bookHandler := NewBookHandler(deps.Catalog, deps.Repos.Books, cfg.Catalog.MaxPageSize, log)
	userHandler := NewUserHandler(deps.Repos.Users, jwtService, deps.Cache, cfg.Auth, n, log)
	reviewHandler := NewReviewHandler(deps.Repos.Reviews, deps.Catalog, log)
	cartHandler := NewCartHandler(deps.Repos.Carts, deps.Repos.Wishlists, log)
	addressHandler := NewAddressHandler(deps.Repos.Addresses, log)
	orderHandler := NewOrderHandler(deps.Repos.Orders, deps.Repos.Users, deps.Catalog, n, log)

	// Setup Gin router
	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(log, deps.Metrics))

	// Health and metrics endpoints (no auth required)
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{})))

	auth := AuthMiddleware(jwtService, deps.Cache, log)
	admin := AdminMiddleware()

	// API routes
	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/register", userHandler.RegisterUser)
	users.POST("/login", userHandler.LoginUser)
	users.POST("/logout", auth, userHandler.LogoutUser)
	users.GET("/me", auth, userHandler.Me)

	// Public catalog endpoints
	books := api.Group("/books")
	books.GET("", bookHandler.ListBooks)
	books.GET("/:id", OptionalAuthMiddleware(jwtService, deps.Cache, log), bookHandler.GetBook)
	books.GET("/:id/reviews", reviewHandler.ListReviews)
	books.POST("/:id/reviews", auth, reviewHandler.UpsertReview)

	// Catalog management (admins only)
	manage := books.Group("", auth, admin)
	manage.POST("", bookHandler.CreateBook)
	manage.POST("/import", bookHandler.ImportBooks)
	manage.PUT("/:id", bookHandler.UpdateBook)
	manage.DELETE("/:id", bookHandler.DeleteBook)
	manage.POST("/:id/toggle_delete", bookHandler.ToggleDeleteBook)

	cart := api.Group("/cart", auth)
	cart.GET("", cartHandler.GetCart)
	cart.DELETE("", cartHandler.ClearCart)
	cart.POST("/items", cartHandler.AddItem)
	cart.PUT("/items/:bookId", cartHandler.UpdateItem)
	cart.DELETE("/items/:bookId", cartHandler.RemoveItem)

	wishlist := api.Group("/wishlist", auth)
	wishlist.GET("", cartHandler.GetWishlist)
	wishlist.POST("/:bookId/toggle", cartHandler.ToggleWishlist)

	addresses := api.Group("/addresses", auth)
	addresses.GET("", addressHandler.ListAddresses)
	addresses.POST("", addressHandler.CreateAddress)
	addresses.GET("/:id", addressHandler.GetAddress)
	addresses.PUT("/:id", addressHandler.UpdateAddress)
	addresses.DELETE("/:id", addressHandler.DeleteAddress)

	orders := api.Group("/orders", auth)
	orders.POST("", orderHandler.PlaceOrder)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.POST("/:id/cancel", orderHandler.CancelOrder)
	orders.PUT("/:id/status", admin, orderHandler.UpdateStatus)

	return r
}
