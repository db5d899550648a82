package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
server:
  addr: ":8080"
market:
  starting_cash: 500
  house_cash: 1000000
  total_shares: 1000
  creator_allotment: 1
  initial_price_min: 30.0
  initial_price_max: 51.0
  history_limit: 20
  pricing:
    policy: additive
    step_per_share: 1.0
    min_price: 1.0
snapshot:
  schedule: "@every 5m"
logging:
  level: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Market.TotalShares != 1000 {
		t.Errorf("Expected 1000 shares, got %d", cfg.Market.TotalShares)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CHAOS_MARKET_ADDR", ":9999")
	t.Setenv("CHAOS_MARKET_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Env override should win, got %s", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Env override should win, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("Unknown Pricing Policy", func(t *testing.T) {
		bad := strings.Replace(validYAML, "policy: additive", "policy: oracle", 1)
		if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
			t.Error("Expected validation error")
		}
	})

	t.Run("Missing Schedule", func(t *testing.T) {
		bad := strings.Replace(validYAML, `schedule: "@every 5m"`, `schedule: ""`, 1)
		if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
			t.Error("Expected validation error")
		}
	})

	t.Run("Missing Address", func(t *testing.T) {
		bad := strings.Replace(validYAML, `addr: ":8080"`, `addr: ""`, 1)
		if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
			t.Error("Expected validation error")
		}
	})
}
