package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"voicehub/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	AdminBotToken    string
	AdminBotEnabled  bool
	AdminTelegramIDs []int64

	// Tunable product rules
	AllowSelfGift    bool
	GiftFanout       string // "replicate" or "split"
	WithdrawMin      int64
	WithdrawCooldown time.Duration
	ReferralCoins    int64
	ReferralCash     int64

	// Lock wait bound for per-key mutations
	LockWait time.Duration

	// API rate limits
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from the environment, with .env as fallback.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Admin telegram IDs, comma separated
	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	fanout := os.Getenv("GIFT_FANOUT")
	if fanout != "split" {
		fanout = "replicate"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		LogLevel: envDefault("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		AdminBotToken:    os.Getenv("ADMIN_BOT_TOKEN"),
		AdminBotEnabled:  os.Getenv("ADMIN_BOT_ENABLED") == "true",
		AdminTelegramIDs: adminIDs,

		AllowSelfGift:    os.Getenv("ALLOW_SELF_GIFT") == "true",
		GiftFanout:       fanout,
		WithdrawMin:      envInt64("REFERRAL_WITHDRAW_MIN", 1000),
		WithdrawCooldown: envDuration("REFERRAL_WITHDRAW_COOLDOWN_SECONDS", 24*time.Hour),
		ReferralCoins:    envInt64("REFERRAL_REWARD_COINS", 5000),
		ReferralCash:     envInt64("REFERRAL_REWARD_CASH", 100),

		LockWait: envDuration("LOCK_WAIT_MS", 250*time.Millisecond),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: envDuration("API_RATE_WINDOW_SECONDS", time.Minute),
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if strings.HasSuffix(key, "_MS") {
				return time.Duration(n) * time.Millisecond
			}
			return time.Duration(n) * time.Second
		}
	}
	return def
}
