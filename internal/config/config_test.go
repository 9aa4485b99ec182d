package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "USERNAME", "PASSWORD", "HL_GILTS_URL", "PRICE_FEED_URL", "GILTS_PATH", "PRICE_TTL", "GILTS_CONFIG", "DISCOVERY_AT", "PRICE_SCHEDULE_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "changeme", cfg.Password)
	assert.Equal(t, "https://giltsyield.com/bond/", cfg.GiltsyieldURL)
	assert.Equal(t, "gilts.json", cfg.GiltsPath)
	assert.Equal(t, 10*time.Minute, cfg.PriceTTL)
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.45}, cfg.AllowedTaxRate)

	hour, minute, err := cfg.DiscoveryTime()
	require.NoError(t, err)
	assert.Equal(t, 2, hour)
	assert.Equal(t, 15, minute)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GILTS_CONFIG", "")
	t.Setenv("PORT", "8081")
	t.Setenv("USERNAME", "ops")
	t.Setenv("PASSWORD", "secret")
	t.Setenv("PRICE_TTL", "90s")
	t.Setenv("PRICE_SCHEDULE_MINUTE", "30")
	t.Setenv("DISCOVERY_AT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, "ops", cfg.Username)
	assert.Equal(t, 90*time.Second, cfg.PriceTTL)
	assert.Equal(t, 30, cfg.PriceMinute)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gilts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
gilts_path: /var/lib/gilts/gilts.json
price_ttl: 5m
discovery_at: "03:45"
allowed_tax_rates: [0, 0.2]
use_dmo: true
`), 0o644))

	t.Setenv("GILTS_CONFIG", path)
	t.Setenv("USERNAME", "")
	t.Setenv("PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/var/lib/gilts/gilts.json", cfg.GiltsPath)
	assert.Equal(t, 5*time.Minute, cfg.PriceTTL)
	assert.Equal(t, []float64{0, 0.2}, cfg.AllowedTaxRate)
	assert.True(t, cfg.UseDMO)
	assert.Equal(t, "admin", cfg.Username)
}

func TestValidate(t *testing.T) {
	base := Config{Username: "u", Password: "p", GiltsPath: "g.json", PriceTTL: time.Minute, DiscoveryAt: "02:15"}
	require.NoError(t, base.Validate())

	bad := base
	bad.DiscoveryAt = "25:00"
	assert.Error(t, bad.Validate())

	bad = base
	bad.AllowedTaxRate = []float64{1}
	assert.Error(t, bad.Validate())

	bad = base
	bad.PriceMinute = 60
	assert.Error(t, bad.Validate())

	bad = base
	bad.Password = ""
	assert.Error(t, bad.Validate())
}
