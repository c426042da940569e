package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ayush-backend/internal/config"
	"ayush-backend/internal/events"
	"ayush-backend/internal/store"
)

// maxUploadFiles bounds a multipart body to this many images.
const maxUploadFiles = 10

// maxStockChange bounds one relative stock adjustment.
const maxStockChange = 1_000_000

type server struct {
	cfg   *config.Config
	store *store.Store
	// products is the catalog as handlers see it, possibly behind the cache.
	products store.Products
	events   events.Publisher
	log      *logrus.Logger
	metrics  *metrics
	now      func() time.Time
}

func newServer(cfg *config.Config, st *store.Store, products store.Products, pub events.Publisher, log *logrus.Logger) *server {
	if products == nil {
		products = st.Products
	}
	return &server{
		cfg:      cfg,
		store:    st,
		products: products,
		events:   pub,
		log:      log,
		metrics:  newMetrics(),
		now:      time.Now,
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), s.metrics.middleware())
	r.Use(cors.New(s.corsConfig()))
	r.Use(s.bodyLimit)

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", s.metrics.handler())
	r.Static("/uploads", s.cfg.Upload.Dir)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)

		user := auth.Group("", s.AuthMiddleware)
		user.GET("/me", s.me)
		user.POST("/update-profile", s.updateProfile)
		user.POST("/add-address", s.addAddress)
		user.POST("/update-address", s.updateAddress)
		user.DELETE("/delete-address/:index", s.deleteAddress)
		user.POST("/upload-profile-picture", s.uploadProfilePicture)
	}

	products := api.Group("/products")
	{
		products.GET("", s.listProducts)
		products.GET("/:id", s.getProduct)

		admin := products.Group("", s.AuthMiddleware, RequireAdmin)
		admin.POST("", s.createProduct)
		admin.POST("/upload", s.uploadProductImages)
		admin.PUT("/stock/:id", s.updateStock)
		admin.PUT("/:id", s.updateProduct)
		admin.DELETE("/:id", s.deleteProduct)
	}

	poojas := api.Group("/poojas")
	{
		poojas.GET("", s.listPoojas)
		poojas.GET("/:id", s.getPooja)

		admin := poojas.Group("", s.AuthMiddleware, RequireAdmin)
		admin.POST("", s.createPooja)
		admin.DELETE("/:id", s.deletePooja)
	}

	bookings := api.Group("/bookings", s.AuthMiddleware)
	{
		bookings.POST("", s.createBooking)
		bookings.GET("/my", s.myBookings)
		bookings.DELETE("/:id", s.cancelBooking)
		bookings.GET("/all", RequireAdmin, s.allBookings)
		bookings.PATCH("/update/:id", RequireAdmin, s.updateBooking)
	}

	orders := api.Group("/orders", s.AuthMiddleware)
	{
		orders.POST("", s.placeOrder)
		orders.GET("/my", s.myOrders)
		orders.PUT("/:id/status", s.updateOrderStatus)
		orders.GET("", RequireAdmin, s.allOrders)
		orders.GET("/stats", RequireAdmin, s.orderStats)
	}

	admin := api.Group("/admin", s.AuthMiddleware, RequireAdmin)
	admin.GET("/user-count", s.userCount)

	return r
}

func (s *server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// bodyLimit caps request bodies. Multipart uploads get room for
// maxUploadFiles images.
func (s *server) bodyLimit(c *gin.Context) {
	if c.Request.Body == nil {
		c.Next()
		return
	}
	limit := s.cfg.Server.MaxBodyBytes
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limit = s.cfg.Upload.MaxBytes * maxUploadFiles
	}
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	c.Next()
}

func (s *server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// publish sends an event without tying it to the request's lifetime.
// Failures are logged only.
func (s *server) publish(ctx context.Context, key string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.WithError(err).WithField("routing_key", key).Warn("publish event failed")
	}
}
