package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Calendar read endpoints
	r.GET("/calendar/economics", handler.GetEconomicsCalendar)
	r.GET("/calendar/earnings", handler.GetEarningsCalendar)

	// Admin endpoints
	admin := r.Group("/admin")
	{
		admin.GET("/watchlist", handler.GetWatchlist)
		admin.POST("/watchlist", handler.AddWatchlistTickers)
		admin.DELETE("/watchlist/:ticker", handler.RemoveWatchlistTicker)
		admin.POST("/sync", handler.TriggerSync)
	}

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Market Calendar",
			"version":     handler.version,
			"description": "Economic and earnings calendar ingestion service with a REST read API",
			"endpoints": map[string]string{
				"economics": "/calendar/economics?start=YYYY-MM-DD&end=YYYY-MM-DD",
				"earnings":  "/calendar/earnings?start=YYYY-MM-DD&end=YYYY-MM-DD",
				"watchlist": "/admin/watchlist",
				"sync":      "/admin/sync (POST)",
				"health":    "/health",
				"stats":     "/stats",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
