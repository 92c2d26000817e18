package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Ensure envs are clean to use defaults
	os.Unsetenv("DB_PATH")
	os.Unsetenv("HTTP_ADDRESS")
	os.Unsetenv("DELIVERY_INTERVAL")
	os.Unsetenv("MAX_DELIVERY_SIZE")
	os.Unsetenv("PREMIUM_CUTOFF")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "donut.db" || cfg.HTTP.Address != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Queue.DeliveryInterval != 5*time.Minute || cfg.Queue.MaxDeliverySize != 50 || cfg.Queue.PremiumCutoff != 1000 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("DELIVERY_INTERVAL", "90s")
	t.Setenv("MAX_DELIVERY_SIZE", "12")
	t.Setenv("PREMIUM_CUTOFF", "500")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "test.db" || cfg.HTTP.Address != ":9090" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Queue.DeliveryInterval != 90*time.Second || cfg.Queue.MaxDeliverySize != 12 || cfg.Queue.PremiumCutoff != 500 {
		t.Fatalf("unexpected queue overrides: %+v", cfg.Queue)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("DELIVERY_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DELIVERY_INTERVAL")
	}
	t.Setenv("DELIVERY_INTERVAL", "5m")
	t.Setenv("MAX_DELIVERY_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive MAX_DELIVERY_SIZE")
	}
}
