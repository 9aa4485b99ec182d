package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the monitor settings. Environment variables give the defaults, a YAML
// file named by GILTS_CONFIG overrides them.
type Config struct {
	Addr            string        `yaml:"addr"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	GiltsyieldURL   string        `yaml:"giltsyield_url"`
	PriceFeedURL    string        `yaml:"price_feed_url"`
	UseDMO          bool          `yaml:"use_dmo"`
	UseDividendData bool          `yaml:"use_dividend_data"`
	GiltsPath       string        `yaml:"gilts_path"`
	PriceTTL        time.Duration `yaml:"price_ttl"`
	PriceMinute     int           `yaml:"price_minute"`
	DiscoveryAt     string        `yaml:"discovery_at"`
	SnapshotDst     string        `yaml:"snapshot_dst"`
	AWSProfile      string        `yaml:"aws_profile"`
	AllowedTaxRate  []float64     `yaml:"allowed_tax_rates"`
}

var DefaultTaxRates = []float64{0, 0.2, 0.4, 0.45}

// Load reads the configuration from the environment and the optional YAML file.
func Load() (Config, error) {
	cfg := Config{
		Addr:            ":" + getenvDefault("PORT", "4000"),
		Username:        getenvDefault("USERNAME", "admin"),
		Password:        getenvDefault("PASSWORD", "changeme"),
		GiltsyieldURL:   getenvDefault("HL_GILTS_URL", "https://giltsyield.com/bond/"),
		PriceFeedURL:    os.Getenv("PRICE_FEED_URL"),
		UseDMO:          getenvBoolDefault("USE_DMO", false),
		UseDividendData: getenvBoolDefault("USE_DIVIDEND_DATA", false),
		GiltsPath:       getenvDefault("GILTS_PATH", "gilts.json"),
		PriceTTL:        getenvDuration("PRICE_TTL", 10*time.Minute),
		PriceMinute:     getenvIntDefault("PRICE_SCHEDULE_MINUTE", 0),
		DiscoveryAt:     getenvDefault("DISCOVERY_AT", "02:15"),
		SnapshotDst:     os.Getenv("SNAPSHOT_DST"),
		AWSProfile:      getenvDefault("AWS_PROFILE", "default"),
		AllowedTaxRate:  DefaultTaxRates,
	}

	if path := os.Getenv("GILTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return errors.New("config: username and password required")
	}
	if c.GiltsPath == "" {
		return errors.New("config: gilts path required")
	}
	if c.PriceTTL <= 0 {
		return errors.New("config: price ttl must be positive")
	}
	if c.PriceMinute < 0 || c.PriceMinute > 59 {
		return fmt.Errorf("config: price minute %d out of range", c.PriceMinute)
	}
	if _, _, err := c.DiscoveryTime(); err != nil {
		return err
	}
	for _, r := range c.AllowedTaxRate {
		if r < 0 || r >= 1 {
			return fmt.Errorf("config: tax rate %v out of range", r)
		}
	}
	return nil
}

// DiscoveryTime parses DiscoveryAt as HH:MM.
func (c Config) DiscoveryTime() (hour, minute int, err error) {
	parts := strings.Split(c.DiscoveryAt, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("config: invalid discovery time %q", c.DiscoveryAt)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("config: invalid discovery time %q", c.DiscoveryAt)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("config: invalid discovery time %q", c.DiscoveryAt)
	}
	return hour, minute, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
