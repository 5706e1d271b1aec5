package http

import (
	"time"

	"voicehub/internal/config"
	"voicehub/internal/http/handlers"
	"voicehub/internal/http/middleware"
	"voicehub/internal/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API surface. The handler carries the core
// services; the hub streams room events.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, hub *ws.Hub, cfg *config.Config, version string) {
	healthHandler := handlers.NewHealthHandler(h.DB, version)

	// Health checks, no rate limiting
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	apiRateLimit := 60
	apiRateWindow := time.Minute
	if cfg != nil {
		apiRateLimit = cfg.APIRateLimit
		apiRateWindow = cfg.APIRateWindow
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Per-user limit on spend actions, stricter than the IP limit
	spendRL := middleware.UserRateLimit(30, time.Minute)

	wallet := v1.Group("/wallet")
	wallet.Use(middleware.JWT())
	{
		wallet.GET("/balances", h.Balances)
		wallet.GET("/transactions", h.Transactions)
		wallet.POST("/exchange", spendRL, h.Exchange)
	}

	rewards := v1.Group("/rewards")
	rewards.Use(middleware.JWT())
	{
		rewards.GET("/daily/status", h.DailyStatus)
		rewards.POST("/daily/claim", spendRL, h.DailyClaim)
	}

	v1.GET("/vip/tiers", h.VipTiers)
	v1.GET("/vip/tier", middleware.JWT(), h.VipTier)

	v1.GET("/gifts", h.GiftCatalog)
	v1.POST("/gifts/send", middleware.JWT(), spendRL, h.SendGift)

	rooms := v1.Group("/rooms")
	rooms.Use(middleware.JWT())
	{
		rooms.POST("", h.CreateRoom)
		rooms.GET("/:id", h.Room)
		rooms.POST("/:id/seats/:pos/join", h.JoinSeat)
		rooms.POST("/:id/seats/:pos/leave", h.LeaveSeat)
		rooms.POST("/:id/mute", h.SetMute)
		rooms.POST("/:id/seats/:pos/lock", h.LockSeat)
		rooms.POST("/:id/lock", h.LockRoom)
	}

	referrals := v1.Group("/referrals")
	referrals.Use(middleware.JWT())
	{
		referrals.POST("/bind", h.BindReferral)
		referrals.GET("/stats", h.ReferralStats)
		referrals.POST("/coins/withdraw", spendRL, h.WithdrawReferral)
	}

	// Room event stream
	r.GET("/ws/rooms/:id", middleware.JWT(), h.RoomEvents(hub))
}
