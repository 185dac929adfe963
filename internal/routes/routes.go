package routes

import (
	"time"

	"crown_back_end/internal/handlers"
	"crown_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Deps carries everything the router needs. Counter may be nil, in which
// case requests are not rate limited.
type Deps struct {
	Service     string
	Logger      *zap.Logger
	Tokens      middleware.TokenParser
	Counter     middleware.Counter
	RateLimit   int
	CORSOrigins []string

	Auth            *handlers.AuthHandler
	Products        *handlers.ProductHandler
	Cart            *handlers.CartHandler
	Orders          *handlers.OrderHandler
	Recommendations *handlers.RecommendationHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	r.Use(otelgin.Middleware(d.Service))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics())

	r.GET("/health", handlers.Health)
	r.GET("/metrics", middleware.PrometheusHandler())

	api := r.Group("/api")
	if d.Counter != nil && d.RateLimit > 0 {
		api.Use(middleware.APIRateLimit(d.Counter, d.Logger, d.RateLimit))
	}

	required := middleware.AuthRequired(d.Tokens)
	optional := middleware.OptionalAuth(d.Tokens)
	admin := func(action string) []gin.HandlerFunc {
		return []gin.HandlerFunc{required, middleware.RequireAdmin, middleware.AuditAdmin(d.Logger, action)}
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/google", d.Auth.GoogleLogin)
		authGroup.GET("/google/url", d.Auth.GoogleURL)
		authGroup.GET("/google/callback", d.Auth.GoogleCallback)
		authGroup.GET("/me", required, d.Auth.Me)
		authGroup.GET("/verify", required, d.Auth.Verify)
		authGroup.POST("/logout", required, d.Auth.Logout)
	}

	products := api.Group("/products")
	{
		products.GET("", d.Products.List)
		products.GET("/search", d.Products.Search)
		products.GET("/categories", d.Products.Categories)
		products.GET("/:id", d.Products.Get)
		products.POST("", append(admin("product.create"), d.Products.Create)...)
		products.PUT("/:id", append(admin("product.update"), d.Products.Update)...)
		products.DELETE("/:id", append(admin("product.delete"), d.Products.Delete)...)
		products.POST("/:id/images", append(admin("product.image"), d.Products.AddImage)...)
		products.POST("/:id/images/upload", append(admin("product.image_upload"), d.Products.UploadImage)...)
	}

	cart := api.Group("/cart", required)
	{
		cart.GET("", d.Cart.Get)
		cart.POST("/items", cartLimiter(d), d.Cart.Add)
		cart.PUT("/items/:product_id", d.Cart.Update)
		cart.DELETE("/items/:product_id", d.Cart.Remove)
		cart.DELETE("", d.Cart.Clear)
	}

	orders := api.Group("/orders")
	{
		orders.POST("/checkout", optional, d.Orders.Checkout)
		orders.GET("/user/my-orders", required, d.Orders.Mine)
		orders.GET("/stats/dashboard", append(admin("order.stats"), d.Orders.Stats)...)
		orders.GET("", append(admin("order.list"), d.Orders.List)...)
		orders.GET("/:id", d.Orders.Get)
		orders.POST("/:id/status", append(admin("order.status"), d.Orders.UpdateStatus)...)
		orders.POST("/:id/payment", append(admin("order.payment"), d.Orders.RecordPayment)...)
	}

	recs := api.Group("/recommendations")
	{
		recs.GET("/for-you", required, d.Recommendations.ForYou)
		recs.GET("/similar/:product_id", d.Recommendations.Similar)
		recs.GET("/trending", d.Recommendations.Trending)
		recs.GET("/popular", d.Recommendations.Popular)
		recs.POST("/track", required, d.Recommendations.Track)
	}
}

func cartLimiter(d Deps) gin.HandlerFunc {
	if d.Counter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.CartRateLimit(d.Counter, d.Logger)
}

// corsConfig allows any origin, without credentials, when none are listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
