package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invest_platform/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type Config struct {
	AppPort       string
	AllowedOrigin string
	LogLevel      string
	LogJSON       bool

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APIRateLimit  int
	APIRateWindow time.Duration

	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	Location             *time.Location
	ReferralBonusPercent decimal.Decimal
	PaymentExpiry        time.Duration

	GatewayCallbackSecret string
	CoinGateAPIURL        string
	CoinGateToken         string
	UddoktaPayAPIURL      string
	UddoktaPayKey         string
	PublicBaseURL         string

	BotToken         string
	AdminTelegramIDs []int64
	AdminBotEnabled  bool
}

// Load reads .env (if present) and the process environment. Invalid config is fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:       withDefault(getenv("APP_PORT"), "8080"),
		AllowedOrigin: getenv("ALLOWED_ORIGIN"),
		LogLevel:      withDefault(getenv("LOG_LEVEL"), "info"),
		LogJSON:       getenv("LOG_JSON") == "true",

		StoreDriver: withDefault(getenv("STORE_DRIVER"), StoreDriverPostgres),
		DatabaseURL: getenv("DATABASE_URL"),
		SQLitePath:  withDefault(getenv("SQLITE_PATH"), "invest.db"),

		JWTSecret: getenv("JWT_SECRET"),

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       intOr(getenv("REDIS_DB"), 0),
		APIRateLimit:  intOr(getenv("API_RATE_LIMIT"), 60),
		APIRateWindow: time.Duration(intOr(getenv("API_RATE_WINDOW_SECONDS"), 60)) * time.Second,

		SubmitRateLimit:  intOr(getenv("SUBMIT_RATE_LIMIT"), 10),
		SubmitRateWindow: time.Duration(intOr(getenv("SUBMIT_RATE_WINDOW_SECONDS"), 60)) * time.Second,

		PaymentExpiry: time.Duration(intOr(getenv("PAYMENT_EXPIRY_MINUTES"), 60)) * time.Minute,

		GatewayCallbackSecret: getenv("GATEWAY_CALLBACK_SECRET"),
		CoinGateAPIURL:        withDefault(getenv("COINGATE_API_URL"), "https://api.coingate.com/v2"),
		CoinGateToken:         getenv("COINGATE_TOKEN"),
		UddoktaPayAPIURL:      withDefault(getenv("UDDOKTAPAY_API_URL"), "https://sandbox.uddoktapay.com/api"),
		UddoktaPayKey:         getenv("UDDOKTAPAY_KEY"),
		PublicBaseURL:         withDefault(getenv("PUBLIC_BASE_URL"), "http://localhost:8080"),

		BotToken:        getenv("BOT_TOKEN"),
		AdminBotEnabled: getenv("ADMIN_BOT_ENABLED") == "true",
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	if cfg.AdminBotEnabled && cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required when ADMIN_BOT_ENABLED=true")
	}

	loc, err := time.LoadLocation(withDefault(getenv("PLATFORM_TIMEZONE"), "UTC"))
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.ReferralBonusPercent = decimal.NewFromInt(5)
	if v := getenv("REFERRAL_BONUS_PERCENT"); v != "" {
		pct, err := decimal.NewFromString(v)
		if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("REFERRAL_BONUS_PERCENT must be between 0 and 100")
		}
		cfg.ReferralBonusPercent = pct
	}

	// тг id админов через запятую
	for _, idStr := range strings.Split(getenv("ADMIN_TELEGRAM_IDS"), ",") {
		idStr = strings.TrimSpace(idStr)
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
		}
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}
