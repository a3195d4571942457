package config

import (
	"os"
	"testing"
	"time"

	"github.com/iliyamo/experience-booking/internal/service"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "booking")
	t.Setenv("DB_NAME", "experiences")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("expected default port 5000, got %q", cfg.Port)
	}
	if cfg.PricingMode != service.PricingClient {
		t.Errorf("expected client pricing by default, got %q", cfg.PricingMode)
	}
	if cfg.TaxRate != 0.06 {
		t.Errorf("expected tax rate 0.06, got %v", cfg.TaxRate)
	}
	if cfg.RedeemPromoOnBooking {
		t.Error("promo redemption must be off by default")
	}
	if cfg.BookingQueue != "booking.created" {
		t.Errorf("unexpected queue %q", cfg.BookingQueue)
	}
	if cfg.DBConnectDelay != time.Second {
		t.Errorf("unexpected connect delay %v", cfg.DBConnectDelay)
	}
}

func TestFromEnvMissingRequired(t *testing.T) {
	// t.Setenv registers the restore; unset so the variables are truly absent.
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_USER")
	os.Unsetenv("DB_NAME")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing DB_USER/DB_NAME")
	}
}

func TestFromEnvPricingMode(t *testing.T) {
	setRequired(t)

	t.Setenv("PRICING_MODE", " Server ")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PricingMode != service.PricingServer {
		t.Errorf("expected server mode, got %q", cfg.PricingMode)
	}

	t.Setenv("PRICING_MODE", "negotiated")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for unknown pricing mode")
	}
}

func TestFromEnvRejectsTaxRate(t *testing.T) {
	setRequired(t)
	t.Setenv("TAX_RATE", "1.5")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for tax rate >= 1")
	}
	t.Setenv("TAX_RATE", "0")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for zero tax rate")
	}
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("expected capacity clamped to 1, got %d", cfg.Capacity)
	}
	if cfg.TTL != 15*time.Second {
		t.Errorf("expected TTL raised to 5 intervals, got %v", cfg.TTL)
	}
}

func TestLoadRateLimitConfigRefillEvery(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "4")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")

	cfg := LoadRateLimitConfig()
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 500*time.Millisecond {
		t.Errorf("unexpected refill %d every %v", cfg.RefillTokens, cfg.RefillInterval)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg, err := LoadCacheConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Caches("GET") || !cfg.Caches("HEAD") || cfg.Caches("POST") {
		t.Errorf("unexpected methods %v", cfg.Methods)
	}
	if cfg.TTL != 30*time.Second {
		t.Errorf("expected default TTL of 30s, got %v", cfg.TTL)
	}
	if cfg.Prefix != "cache:experiences" {
		t.Errorf("unexpected prefix %q", cfg.Prefix)
	}
}

func TestLoadCacheConfigRejectsBadTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")
	if _, err := LoadCacheConfig(); err == nil {
		t.Fatal("expected error for malformed CACHE_TTL")
	}
}

func TestLoadRedisConfigHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6380" {
		t.Errorf("expected host/port to win, got %q", cfg.Addr)
	}
	if !cfg.TLS {
		t.Error("expected TLS enabled")
	}
}
