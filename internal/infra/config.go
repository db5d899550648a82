package infra

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds every application setting. Values load from YAML first, then
// environment variables override the deployment-specific ones.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Market struct {
		StartingCash     decimal.Decimal `yaml:"starting_cash"`
		HouseCash        decimal.Decimal `yaml:"house_cash"`
		TotalShares      int64           `yaml:"total_shares"`
		CreatorAllotment int64           `yaml:"creator_allotment"`
		InitialPriceMin  float64         `yaml:"initial_price_min"`
		InitialPriceMax  float64         `yaml:"initial_price_max"`
		HistoryLimit     int             `yaml:"history_limit"`
		IdleExpiryMin    int             `yaml:"idle_expiry_minutes"`

		Pricing struct {
			Policy     string          `yaml:"policy"` // additive | multiplicative
			Step       decimal.Decimal `yaml:"step_per_share"`
			Floor      decimal.Decimal `yaml:"min_price"`
			PercentMin float64         `yaml:"percent_min"`
			PercentMax float64         `yaml:"percent_max"`
		} `yaml:"pricing"`
	} `yaml:"market"`

	Snapshot struct {
		Schedule string `yaml:"schedule"` // cron expression, e.g. "@every 5m"
		Path     string `yaml:"path"`     // sqlite file, empty for the OS default
	} `yaml:"snapshot"`

	Bots struct {
		Enabled          bool    `yaml:"enabled"`
		Count            int     `yaml:"count"`
		MinDelaySec      int     `yaml:"min_delay_sec"`
		MaxDelaySec      int     `yaml:"max_delay_sec"`
		TradeProbability float64 `yaml:"trade_probability"`
	} `yaml:"bots"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file. A .env file next to the
// process, if present, is loaded before environment overrides apply.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	m := &c.Market
	if m.TotalShares <= 0 {
		return fmt.Errorf("total shares must be positive")
	}
	if m.CreatorAllotment < 1 || m.CreatorAllotment > m.TotalShares {
		return fmt.Errorf("creator allotment must be in [1, total shares]")
	}
	if m.InitialPriceMin <= 0 || m.InitialPriceMax < m.InitialPriceMin {
		return fmt.Errorf("initial price range must satisfy 0 < min <= max")
	}
	if m.StartingCash.IsNegative() {
		return fmt.Errorf("starting cash cannot be negative")
	}
	if m.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	switch m.Pricing.Policy {
	case "additive":
		if !m.Pricing.Step.IsPositive() {
			return fmt.Errorf("additive pricing requires a positive step")
		}
	case "multiplicative":
		if m.Pricing.PercentMin <= 0 || m.Pricing.PercentMax < m.Pricing.PercentMin {
			return fmt.Errorf("multiplicative pricing requires 0 < percent_min <= percent_max")
		}
	default:
		return fmt.Errorf("unknown pricing policy %q", m.Pricing.Policy)
	}
	if !m.Pricing.Floor.IsPositive() {
		return fmt.Errorf("minimum price must be positive")
	}
	if c.Snapshot.Schedule == "" {
		return fmt.Errorf("snapshot schedule is required")
	}
	if c.Bots.Enabled {
		if c.Bots.Count <= 0 {
			return fmt.Errorf("bot count must be positive when bots are enabled")
		}
		if c.Bots.MinDelaySec <= 0 || c.Bots.MaxDelaySec < c.Bots.MinDelaySec {
			return fmt.Errorf("bot delays must satisfy 0 < min <= max")
		}
		if c.Bots.TradeProbability < 0 || c.Bots.TradeProbability > 1 {
			return fmt.Errorf("bot trade probability must be in [0, 1]")
		}
	}
	return nil
}

// overrideWithEnv applies environment overrides for deployment settings.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("CHAOS_MARKET_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("CHAOS_MARKET_SNAPSHOT_PATH"); path != "" {
		cfg.Snapshot.Path = path
	}
	if level := os.Getenv("CHAOS_MARKET_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if bots := os.Getenv("CHAOS_MARKET_BOTS"); bots != "" {
		if enabled, err := strconv.ParseBool(bots); err == nil {
			cfg.Bots.Enabled = enabled
		}
	}
}
