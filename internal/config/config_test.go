package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.apify.com/v2", cfg.Apify.BaseURL)
	assert.Equal(t, "compass~crawler-google-places", cfg.Apify.Actor)
	assert.Equal(t, 300, cfg.Apify.TimeoutSecs)
	assert.Equal(t, 10, cfg.Scrape.DefaultMaxReviews)
	assert.Equal(t, 50, cfg.Scrape.MaxReviewsCap)
	assert.Equal(t, "id", cfg.Scrape.DefaultLanguage)
	assert.Equal(t, 2, cfg.Enrich.Workers)
	assert.Equal(t, 10, cfg.Enrich.BatchSize)
	assert.Equal(t, 3, cfg.Sentiment.MaxRetries)
	assert.InDelta(t, 2.0, cfg.Sentiment.RatePerSec, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
  database_url: reviews.db
log:
  level: debug
  format: console
server:
  port: 9090
enrich:
  workers: 4
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "reviews.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Enrich.Workers)
	// Untouched sections keep defaults.
	assert.Equal(t, 10, cfg.Enrich.BatchSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		mode    string
		wantErr string
	}{
		{
			name:    "missing database url",
			cfg:     Config{Store: StoreConfig{Driver: "postgres"}},
			mode:    "store",
			wantErr: "database_url",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Store: StoreConfig{Driver: "mysql", DatabaseURL: "x"}},
			mode:    "store",
			wantErr: "unknown store driver",
		},
		{
			name:    "scrape mode requires apify token",
			cfg:     Config{Store: StoreConfig{Driver: "sqlite", DatabaseURL: "reviews.db"}, Scrape: ScrapeConfig{MaxReviewsCap: 50}},
			mode:    "scrape",
			wantErr: "apify.token",
		},
		{
			name: "serve mode ok",
			cfg: Config{
				Store:  StoreConfig{Driver: "sqlite", DatabaseURL: "reviews.db"},
				Apify:  ApifyConfig{Token: "tok"},
				Scrape: ScrapeConfig{MaxReviewsCap: 50},
			},
			mode: "serve",
		},
		{
			name:    "unknown mode",
			cfg:     Config{Store: StoreConfig{Driver: "sqlite", DatabaseURL: "x"}},
			mode:    "bogus",
			wantErr: "unknown validation mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
