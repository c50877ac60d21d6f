package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default listen address, got %q", cfg.ListenAddr)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("Expected sqlite store by default, got %q", cfg.StoreDriver)
	}
	if cfg.TickRate != 50*time.Millisecond {
		t.Errorf("Expected 50ms ticks, got %s", cfg.TickRate)
	}
	if !cfg.AimUntag {
		t.Errorf("Expected aim untag enabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BABYTURT_STORE", "memory")
	t.Setenv("BABYTURT_TICK_RATE", "10ms")
	t.Setenv("BABYTURT_AIM_UNTAG", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != DriverMemory || cfg.TickRate != 10*time.Millisecond || cfg.AimUntag {
		t.Errorf("Environment not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("BABYTURT_STORE", "postgres")
	if _, err := Load(); err == nil {
		t.Errorf("Expected postgres without DSN to be rejected")
	}

	t.Setenv("BABYTURT_STORE", "redis")
	if _, err := Load(); err == nil {
		t.Errorf("Expected unknown store to be rejected")
	}

	t.Setenv("BABYTURT_STORE", "memory")
	t.Setenv("BABYTURT_TICK_RATE", "0s")
	if _, err := Load(); err == nil {
		t.Errorf("Expected zero tick rate to be rejected")
	}
}
