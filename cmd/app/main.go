package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicehub/internal/bot"
	"voicehub/internal/config"
	"voicehub/internal/db"
	"voicehub/internal/economy"
	"voicehub/internal/gift"
	httpServer "voicehub/internal/http"
	"voicehub/internal/http/handlers"
	"voicehub/internal/http/middleware"
	"voicehub/internal/logger"
	"voicehub/internal/referral"
	"voicehub/internal/repository"
	"voicehub/internal/reward"
	"voicehub/internal/room"
	"voicehub/internal/service"
	"voicehub/internal/vip"
	"voicehub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	// Storage
	accounts := repository.NewAccountRepository(dbPool)
	rewardStates := repository.NewRewardRepository(dbPool)
	referralStore := repository.NewReferralRepository(dbPool)
	vipProfiles := repository.NewVipRepository(dbPool)

	// Core services
	ledger := economy.NewLedger(accounts)
	registry := vip.NewRegistry()
	rewards := reward.NewScheduler(rewardStates, ledger, registry, vipProfiles)
	gifts := gift.NewEngine(gift.NewCatalog(), ledger, registry, vipProfiles, gift.Config{
		AllowSelfGift: cfg.AllowSelfGift,
		Fanout:        gift.FanoutMode(cfg.GiftFanout),
	})
	rooms := room.NewManager(cfg.LockWait)
	referrals := referral.NewLedger(referralStore, ledger, referral.Config{
		WithdrawMin:      cfg.WithdrawMin,
		WithdrawCooldown: cfg.WithdrawCooldown,
		RewardCoins:      cfg.ReferralCoins,
		RewardCash:       cfg.ReferralCash,
	})

	hub := ws.NewHub()
	rooms.OnEvent(hub.Publish)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers.Handler{
		DB:        dbPool,
		Ledger:    ledger,
		Rewards:   rewards,
		Vip:       registry,
		Profiles:  vipProfiles,
		Gifts:     gifts,
		Rooms:     rooms,
		Referrals: referrals,
	}
	httpServer.RegisterRoutes(r, h, hub, cfg, version)

	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled && cfg.AdminBotToken != "" {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.AdminBotToken, ledger, vipProfiles, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot init failed", "error", err)
		} else {
			go adminBot.Start()
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if adminBot != nil {
		adminBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
