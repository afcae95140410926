package config

import (
	"testing"
	"time"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL": "postgres://localhost/invest",
		"JWT_SECRET":   "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q", cfg.AppPort)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.Location.String() != "UTC" {
		t.Errorf("Location = %s", cfg.Location)
	}
	if cfg.PaymentExpiry != time.Hour {
		t.Errorf("PaymentExpiry = %s", cfg.PaymentExpiry)
	}
	if cfg.ReferralBonusPercent.String() != "5" {
		t.Errorf("ReferralBonusPercent = %s", cfg.ReferralBonusPercent)
	}
}

func TestFromEnvParsesAdminIDs(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"STORE_DRIVER":       "sqlite",
		"JWT_SECRET":         "secret",
		"ADMIN_TELEGRAM_IDS": "11, 22,bad,33",
		"PLATFORM_TIMEZONE":  "Asia/Dhaka",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.AdminTelegramIDs) != 3 || cfg.AdminTelegramIDs[1] != 22 {
		t.Errorf("AdminTelegramIDs = %v", cfg.AdminTelegramIDs)
	}
	if cfg.Location.String() != "Asia/Dhaka" {
		t.Errorf("Location = %s", cfg.Location)
	}
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"JWT_SECRET": "s"},
		"missing jwt secret":   {"STORE_DRIVER": "sqlite"},
		"unknown driver":       {"STORE_DRIVER": "mongo", "JWT_SECRET": "s"},
		"bad timezone":         {"STORE_DRIVER": "sqlite", "JWT_SECRET": "s", "PLATFORM_TIMEZONE": "Mars/Base"},
		"bad percent":          {"STORE_DRIVER": "sqlite", "JWT_SECRET": "s", "REFERRAL_BONUS_PERCENT": "150"},
		"bot without token":    {"STORE_DRIVER": "sqlite", "JWT_SECRET": "s", "ADMIN_BOT_ENABLED": "true"},
	}
	for name, env := range cases {
		if _, err := FromEnv(envOf(env)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
