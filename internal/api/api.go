package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/api/handlers"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/api/middleware"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/metrics"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	EfficiencyService *service.EfficiencyService
}

type Options struct {
	AllowedOrigins []string
	// Metrics is optional; when set its middleware is installed and the
	// registry is exposed on MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}
	router.Use(cors.New(buildCORSConfig(opts.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	apiGroup := router.Group("/api/v1")

	if services != nil && services.EfficiencyService != nil {
		h := handlers.NewEfficiencyHandler(services.EfficiencyService)
		efficiencyGroup := apiGroup.Group("/efficiency")
		{
			efficiencyGroup.GET("/summary", h.GetSummary)
			efficiencyGroup.GET("/monthly", h.GetMonthly)
			efficiencyGroup.GET("/outliers", h.GetOutliers)
			efficiencyGroup.GET("/export", h.ExportCSV)

			efficiencyGroup.GET("/orders", h.GetOrders)
			efficiencyGroup.GET("/orders/:number", h.GetOrderDetail)
			efficiencyGroup.GET("/products", h.GetProducts)
			efficiencyGroup.GET("/products/:code/orders", h.GetProductOrders)
			efficiencyGroup.GET("/categories", h.GetCategories)
			efficiencyGroup.GET("/clients", h.GetClients)
			efficiencyGroup.GET("/clients/suggestions", h.GetClientSuggestions)
		}
	}

	return router
}

func buildCORSConfig(allowedOrigins []string) cors.Config {
	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	return corsConfig
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
