package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://backend.test/")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("TXLOG_DRIVER", "")
	cfg := Load()
	if cfg.UpstreamBaseURL != "http://backend.test" {
		t.Fatalf("base url = %q", cfg.UpstreamBaseURL)
	}
	if cfg.Port != "8080" || cfg.UpstreamTimeout != 10*time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.TxLogDriver != TxLogRedis {
		t.Fatalf("txlog driver = %q", cfg.TxLogDriver)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("PORTAL_TEST_A=fromfile\nPORTAL_TEST_B=fromfile\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORTAL_TEST_A", "fromenv")
	t.Setenv("PORTAL_TEST_B", "")
	os.Unsetenv("PORTAL_TEST_B")
	LoadDotEnv(p, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("PORTAL_TEST_A"); got != "fromenv" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("PORTAL_TEST_B"); got != "fromfile" {
		t.Fatalf("B = %q", got)
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 {
		t.Fatalf("capacity = %d", rl.Capacity)
	}
	if rl.TTL != 10*time.Second {
		t.Fatalf("ttl = %v", rl.TTL)
	}
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	c := LoadCacheConfig()
	if !c.Methods["GET"] || !c.Methods["HEAD"] || len(c.Methods) != 2 {
		t.Fatalf("methods = %v", c.Methods)
	}
}
