package http

import (
	"time"

	"invest_platform/internal/http/handlers"
	"invest_platform/internal/http/middleware"
	"invest_platform/internal/service"
	"invest_platform/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Engine  *service.Engine
	Hub     *ws.Hub
	DB      handlers.Pinger
	Version string

	AllowedOrigin  string
	CallbackSecret string

	APIRateLimit     int
	APIRateWindow    time.Duration
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

func (d *Deps) defaults() {
	if d.APIRateLimit <= 0 {
		d.APIRateLimit = 60
	}
	if d.APIRateWindow <= 0 {
		d.APIRateWindow = time.Minute
	}
	if d.SubmitRateLimit <= 0 {
		d.SubmitRateLimit = 10
	}
	if d.SubmitRateWindow <= 0 {
		d.SubmitRateWindow = time.Minute
	}
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	d.defaults()

	h := handlers.NewHandler(d.Engine)
	var cache handlers.Pinger
	if p := middleware.RedisHealth(); p != nil {
		cache = p
	}
	healthHandler := handlers.NewHealthHandler(d.DB, cache, d.Version)

	r.Use(middleware.RequestID(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live status updates
	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, d.AllowedOrigin))
	}

	v1 := r.Group("/api/v1")

	// Gateway callbacks are unauthenticated apart from the shared secret
	callbacks := v1.Group("/callbacks")
	callbacks.Use(middleware.SimpleRateLimit("callbacks", d.APIRateLimit, d.APIRateWindow))
	callbacks.POST("/:gateway", h.GatewayCallback(d.CallbackSecret))

	v1.GET("/plans", middleware.RedisRateLimit("api", d.APIRateLimit, d.APIRateWindow), h.ListPlans)

	api := v1.Group("")
	api.Use(middleware.RedisRateLimit("api", d.APIRateLimit, d.APIRateWindow), middleware.JWT())
	registerUserRoutes(api, h, middleware.UserRateLimit("submit", d.SubmitRateLimit, d.SubmitRateWindow))

	admin := v1.Group("/admin")
	admin.Use(middleware.JWT(), middleware.AdminOnly())
	registerAdminRoutes(admin, h)
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.Handler, submitRL gin.HandlerFunc) {
	// Account
	api.GET("/me", h.Me)
	api.GET("/eligibility", h.GetEligibility)
	api.GET("/limits/:kind", h.GetRemainingLimit)
	api.GET("/transactions", h.GetTransactions)
	api.POST("/tasks/:id/complete", h.CompleteTask)
	api.POST("/plans/:id/purchase", submitRL, h.PurchasePlan)

	// Withdrawals
	api.POST("/withdrawals", submitRL, h.RequestWithdrawal)
	api.GET("/withdrawals", h.GetWithdrawals)

	// Deposits
	api.POST("/deposits/manual", submitRL, h.RecordManualDeposit)
	api.POST("/deposits/gateway", submitRL, h.CreateGatewayDeposit)
	api.GET("/deposits", h.GetDeposits)

	// KYC
	api.POST("/kyc", submitRL, h.SubmitKYC)
	api.GET("/kyc", h.GetKYC)
}

func registerAdminRoutes(admin *gin.RouterGroup, h *handlers.Handler) {
	admin.GET("/stats", h.AdminStats)
	admin.GET("/pending/:type", h.AdminPending)
	admin.POST("/records/:type/:id/approve", h.AdminApprove)
	admin.POST("/records/:type/:id/reject", h.AdminReject)

	admin.POST("/users/:id/block", h.AdminBlockUser)
	admin.POST("/users/:id/unblock", h.AdminUnblockUser)
	admin.POST("/users/:id/credit", h.AdminCredit)
	admin.GET("/users/:id/reconcile", h.AdminReconcile)
}
