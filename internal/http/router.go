// Package httpapi assembles the Gin engine: middleware chain, operational
// endpoints and the versioned public API, with all dependencies injected
// through RegisterRoutes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/giftella/go-gift-backend/internal/config"
	"github.com/giftella/go-gift-backend/internal/http/handlers"
	"github.com/giftella/go-gift-backend/internal/http/middleware"
	"github.com/giftella/go-gift-backend/internal/recommend"
	"github.com/giftella/go-gift-backend/internal/services"
)

// RegisterRoutes attaches middleware and endpoints to r. The middleware order
// is load-bearing: tracing wraps everything, RequestID runs before the logger
// so every line carries an id, Recovery sits after the logger so panics are
// logged, and the body limit, metrics and rate limiter come before any route
// work. CORS, security headers and gzip close the chain.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	// Quiz answers are small; 1 MiB leaves headroom for any future fields.
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	installCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Session payloads carry up to TopN localized ideas; gzip pays off there.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	quizSvc := services.NewQuizService(db)
	quizSvc.Engine = recommend.NewConfig(recommend.WithTopN(cfg.TopN))
	quizSvc.Locale = cfg.Locale

	h := handlers.New(quizSvc)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/quiz", h.SubmitQuiz)
		api.GET("/quiz", h.ListSessions)
		api.GET("/quiz/:id", h.GetResults)
		api.DELETE("/quiz", h.DeleteSessions)

		api.PUT("/ideas/:id/favorite", h.ToggleFavorite)
	}
}

// installCORS applies the CORS policy. With no configured origins the API is
// open (credentials stay off); otherwise only listed origins are allowed and
// echoed back with a Vary: Origin header.
func installCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody caps request bodies at maxBytes via http.MaxBytesReader; reads
// past the cap fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
