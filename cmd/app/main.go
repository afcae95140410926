package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invest_platform/internal/bot"
	"invest_platform/internal/config"
	"invest_platform/internal/db"
	"invest_platform/internal/gateway"
	httpServer "invest_platform/internal/http"
	"invest_platform/internal/http/handlers"
	"invest_platform/internal/http/middleware"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"
	"invest_platform/internal/scheduler"
	"invest_platform/internal/service"
	"invest_platform/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func openStore(cfg *config.Config) (repository.Store, handlers.Pinger, func()) {
	if cfg.StoreDriver == config.StoreDriverSQLite {
		store := db.ConnectSQLite(cfg.SQLitePath)
		return store, store, func() { _ = store.Close() }
	}
	pool := db.Connect(cfg.DatabaseURL)
	return repository.NewPostgresStore(pool), pool, pool.Close
}

func gateways(cfg *config.Config) []gateway.Client {
	var out []gateway.Client
	if cfg.CoinGateToken != "" {
		out = append(out, gateway.NewCoinGate(cfg.CoinGateAPIURL, cfg.CoinGateToken))
	}
	if cfg.UddoktaPayKey != "" {
		out = append(out, gateway.NewUddoktaPay(cfg.UddoktaPayAPIURL, cfg.UddoktaPayKey))
	}
	return out
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.SetJWTSecret(cfg.JWTSecret)

	store, pinger, closeStore := openStore(cfg)
	defer closeStore()

	engine := service.NewEngine(store, gateways(cfg), service.EngineConfig{
		Location:             cfg.Location,
		ReferralBonusPercent: cfg.ReferralBonusPercent,
		PublicBaseURL:        cfg.PublicBaseURL,
		Currency:             "BDT",
		CallbackSecret:       cfg.GatewayCallbackSecret,
	})

	hub := ws.NewHub()
	engine.Subscribe(hub)

	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled {
		b, err := bot.NewAdminBot(cfg.BotToken, engine, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot disabled", "error", err)
		} else {
			adminBot = b
			engine.Subscribe(adminBot)
			go adminBot.Start()
			defer adminBot.Stop()
		}
	}

	var reporter scheduler.Reporter
	if adminBot != nil {
		reporter = adminBot
	}
	sched := scheduler.NewScheduler(engine, engine.Admin, reporter, scheduler.Config{
		Location:      cfg.Location,
		PaymentExpiry: cfg.PaymentExpiry,
	})
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer middleware.CloseRedisRateLimiter()

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for the web frontend
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Engine:           engine,
		Hub:              hub,
		DB:               pinger,
		Version:          version,
		AllowedOrigin:    cfg.AllowedOrigin,
		CallbackSecret:   cfg.GatewayCallbackSecret,
		APIRateLimit:     cfg.APIRateLimit,
		APIRateWindow:    cfg.APIRateWindow,
		SubmitRateLimit:  cfg.SubmitRateLimit,
		SubmitRateWindow: cfg.SubmitRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
