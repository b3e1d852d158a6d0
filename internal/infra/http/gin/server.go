package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentcalc/internal/infra/config"
	"rentcalc/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Periods(c *gin.Context)
	Reserve(c *gin.Context)
	Release(c *gin.Context)
}

type PricingHTTP interface {
	Quote(c *gin.Context)
	List(c *gin.Context)
	Create(c *gin.Context)
	Put(c *gin.Context)
	Delete(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Pricing      PricingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	registerDocsRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	props := router.Group("/api/v1/properties/:id")
	if h.Availability != nil {
		props.GET("/availability", h.Availability.Check)
		props.GET("/periods", h.Availability.Periods)
		props.POST("/reservations", h.Availability.Reserve)
		props.DELETE("/reservations/:ref", h.Availability.Release)
	}
	if h.Pricing != nil {
		props.GET("/quote", h.Pricing.Quote)
		props.GET("/pricing-periods", h.Pricing.List)
		props.POST("/pricing-periods", h.Pricing.Create)
		props.PUT("/pricing-periods/:periodID", h.Pricing.Put)
		props.DELETE("/pricing-periods/:periodID", h.Pricing.Delete)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
