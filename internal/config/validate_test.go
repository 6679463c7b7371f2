package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAndValidate_DefaultsForZeroValues(t *testing.T) {
	var cfg Config
	cfg.App.Port = 4823

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, 1.0, out.Sources.Scrape.RequestsPerSec)
	assert.Equal(t, 2, out.Sources.Scrape.Burst)
	assert.Equal(t, 4, out.Sources.Scrape.FanOut)
	assert.Equal(t, 5, out.Email.Concurrency)
	assert.Equal(t, 24, out.Cache.TTLHours)
	assert.Equal(t, 3, out.Cache.PopularMinRepeats)
	assert.Equal(t, 1000, out.Stream.PollIntervalMS)
	assert.Equal(t, 3, out.Worker.MaxAttempts)
	assert.Equal(t, 500, out.Worker.BackoffBaseMS)
}

func TestNormalizeAndValidate_PortRange(t *testing.T) {
	var cfg Config
	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())

	cfg.App.Port = 70000
	_, res = NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
}

func TestNormalizeAndValidate_ProviderNames(t *testing.T) {
	var cfg Config
	cfg.App.Port = 4823
	cfg.Sources.Providers = []Provider{
		{Name: " Places ", Enabled: true, QuotaPerDay: 100},
		{Name: "places", Enabled: true, QuotaPerDay: 100},
		{Name: "", Enabled: true},
	}

	out, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Equal(t, "places", out.Sources.Providers[0].Name)

	found := false
	for _, e := range res.Errors {
		if e == `sources.providers: duplicate name "places"` {
			found = true
		}
	}
	assert.True(t, found, "errors: %v", res.Errors)
}

func TestNormalizeAndValidate_ZeroQuotaWarns(t *testing.T) {
	var cfg Config
	cfg.App.Port = 4823
	cfg.Sources.Providers = []Provider{{Name: "places", Enabled: true, QuotaPerDay: 0}}

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestNormalizeAndValidate_WarmQueriesTrimmed(t *testing.T) {
	var cfg Config
	cfg.App.Port = 4823
	cfg.Cache.WarmQueries = []string{" plumbers|austin, tx ", "", "Plumbers|Austin, TX", "dentists|denver, co"}

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK())
	assert.Equal(t, []string{"plumbers|austin, tx", "dentists|denver, co"}, out.Cache.WarmQueries)
}

func TestLoad_RoundtripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 4823
sources:
  prefer_apis: true
  providers:
    - name: places
      enabled: true
      rank: 1
      quota_per_day: 500
      cost_per_call: 0.004
email:
  concurrency: 8
cache:
  ttl_hours: 12
  warm_queries:
    - plumbers|austin, tx
stream:
  poll_interval_ms: 250
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4823, cfg.App.Port)
	assert.True(t, cfg.Sources.PreferAPIs)
	require.Len(t, cfg.Sources.Providers, 1)
	assert.Equal(t, "places", cfg.Sources.Providers[0].Name)
	assert.Equal(t, 500, cfg.Sources.Providers[0].QuotaPerDay)
	assert.Equal(t, 8, cfg.Email.Concurrency)
	assert.Equal(t, 12, cfg.Cache.TTLHours)
	assert.Equal(t, 250, cfg.Stream.PollIntervalMS)
}

func TestEnsureUserConfig_CopiesDefaultOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("app:\n  port: 4823\n"), 0o644))

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// user edits survive a second bootstrap
	require.NoError(t, os.WriteFile(userPath, []byte("app:\n  port: 9999\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	cfg, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.App.Port)
}
