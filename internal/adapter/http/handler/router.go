package handler

import (
	"net/http"
	"time"

	"currency-exchange/internal/adapter/http/middleware"
	"currency-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc   ports.SettlementService
	WalletSvc       ports.WalletService
	ReportingSvc    ports.ReportingService
	TokenSvc        ports.TokenService
	RateLimitStore  middleware.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	AuditSvc        ports.AuditService      // nil = audit logging disabled
	HTTPMetrics     middleware.HTTPObserver // nil = request metrics disabled
	MetricsGatherer prometheus.Gatherer     // nil = no /metrics route
	RequestTimeout  time.Duration
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep: pings the store and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes: every route needs a bearer token.
	v1 := r.Group("/api/v1",
		middleware.JWTAuth(deps.TokenSvc, deps.Logger),
		middleware.RequestTimeout(deps.RequestTimeout),
	)

	offerHandler := NewOfferHandler(deps.SettlementSvc)
	offers := v1.Group("/offers")
	{
		offers.POST("", rl(middleware.GroupOffersWrite), offerHandler.CreateOffer)
		offers.GET("", rl(middleware.GroupReads), offerHandler.ListOffers)
		offers.GET("/:id", rl(middleware.GroupReads), offerHandler.GetOffer)
		offers.POST("/:id/accept", rl(middleware.GroupOffersWrite), offerHandler.AcceptOffer)
		offers.POST("/:id/cancel", rl(middleware.GroupOffersWrite), offerHandler.CancelOffer)
		offers.DELETE("/:id", rl(middleware.GroupOffersWrite), offerHandler.CancelOffer)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.ReportingSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl(middleware.GroupOffersWrite), walletHandler.OpenWallet)
		wallets.GET("", rl(middleware.GroupReads), walletHandler.GetWallet)
		wallets.POST("/topup", rl(middleware.GroupWalletsTopup), walletHandler.Topup)
	}

	txHandler := NewTransactionHandler(deps.ReportingSvc)
	v1.GET("/transactions", rl(middleware.GroupReads), txHandler.ListTransactions)
	v1.GET("/stats/volume", rl(middleware.GroupReads), txHandler.VolumeStats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "REQ_404",
			"message":    "route not found",
		})
	})

	return r
}
