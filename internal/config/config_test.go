package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoicer.yml"), []byte(body), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.InputDir, cfg.InputDir)
	assert.Equal(t, d.OutputDir, cfg.OutputDir)
	assert.Equal(t, "FACT-", cfg.InvoicePrefix)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "Facturen", cfg.GoogleSheetWorksheet)
}

func TestLoadFromFile(t *testing.T) {
	dir := writeConfig(t, `
input_dir: in
output_dir: out
invoice_prefix: "INV-"
workers: 3
render_pdf: true
watch_debounce: 2s
company:
  name: Houtwerk BV
  iban: NL91ABNA0417164300
  email: info@houtwerk.nl
`)

	l, err := NewLoader(dir)
	require.NoError(t, err)
	cfg := l.Get()

	assert.Equal(t, filepath.Join(dir, "invoicer.yml"), l.File())
	assert.Equal(t, "in", cfg.InputDir)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "processed_orders", cfg.ProcessedDir)
	assert.Equal(t, "INV-", cfg.InvoicePrefix)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.RenderPDF)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, "Houtwerk BV", cfg.Company().Name)
	assert.Equal(t, "NL91ABNA0417164300", cfg.Company().IBAN)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("INVOICER_WORKERS", "4")
	t.Setenv("INVOICER_INVOICE_PREFIX", "F")
	t.Setenv("INVOICER_COMPANY_NAME", "Env BV")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "F", cfg.InvoicePrefix)
	assert.Equal(t, "Env BV", cfg.CompanyProfile.Name)
}

func TestLegacyEnvironment(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "debug", cfg.GetLoggerConfig().Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad sheet url", func(c *Config) { c.GoogleSheetURL = "not a url" }},
		{"bad company email", func(c *Config) { c.CompanyProfile.Email = "nobody" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := writeConfig(t, "workers: 0\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "config validation failed")
}
