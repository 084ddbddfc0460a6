package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// EnvPrefix is prepended to every environment override, e.g. INVOICER_WORKERS.
const EnvPrefix = "INVOICER"

type Config struct {
	// Directories
	InputDir     string `mapstructure:"input_dir" validate:"required"`
	OutputDir    string `mapstructure:"output_dir" validate:"required"`
	ProcessedDir string `mapstructure:"processed_dir" validate:"required"`
	ErrorDir     string `mapstructure:"error_dir" validate:"required"`

	// Invoice numbering
	InvoicePrefix string `mapstructure:"invoice_prefix"`

	// Batch processing
	Workers       int           `mapstructure:"workers" validate:"min=1,max=256"`
	RenderPDF     bool          `mapstructure:"render_pdf"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" validate:"min=0"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`

	// Google Sheets Configuration
	GoogleSheetURL       string `mapstructure:"google_sheet_url" validate:"omitempty,url"`
	GoogleSheetWorksheet string `mapstructure:"google_sheet_worksheet"`

	// Logging Configuration
	LogLevel      string `mapstructure:"log_level" validate:"oneof=trace debug info warn error fatal panic"`
	LogFormat     string `mapstructure:"log_format" validate:"oneof=json console"`
	LogTimeFormat string `mapstructure:"log_time_format"`
	LogOutput     string `mapstructure:"log_output" validate:"required"`

	// Seller profile printed on rendered invoices
	CompanyProfile models.Company `mapstructure:"company"`
}

// Default returns the configuration used when neither a config file nor
// environment overrides are present.
func Default() Config {
	return Config{
		InputDir:             "orders",
		OutputDir:            "generated_invoices",
		ProcessedDir:         "processed_orders",
		ErrorDir:             "failed_orders",
		InvoicePrefix:        "FACT-",
		Workers:              12,
		RenderPDF:            false,
		WatchDebounce:        500 * time.Millisecond,
		MetricsAddr:          ":9090",
		GoogleSheetWorksheet: "Facturen",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        time.RFC3339,
		LogOutput:            "stdout",
	}
}

// legacyEnv lists unprefixed variables still honoured for compatibility.
var legacyEnv = map[string]string{
	"workers":          "BATCH_WORKERS",
	"google_sheet_url": "GOOGLE_SHEET_URL",
	"log_level":        "LOG_LEVEL",
	"log_format":       "LOG_FORMAT",
	"log_output":       "LOG_OUTPUT",
}

// Loader reads invoicer.yml and the environment and keeps the latest valid
// configuration.
type Loader struct {
	v       *viper.Viper
	current atomic.Pointer[Config]
}

// NewLoader reads the configuration. Without explicit paths it looks for
// invoicer.yml in the working directory and /etc/invoicer. A missing file is
// not an error; defaults and environment variables apply.
func NewLoader(paths ...string) (*Loader, error) {
	v := viper.New()

	v.SetConfigName("invoicer")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "/etc/invoicer"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	l := &Loader{v: v}
	l.current.Store(cfg)
	return l, nil
}

// Load returns the current configuration from the default locations.
func Load(paths ...string) (*Config, error) {
	l, err := NewLoader(paths...)
	if err != nil {
		return nil, err
	}
	return l.Get(), nil
}

// Get returns the latest valid configuration.
func (l *Loader) Get() *Config {
	return l.current.Load()
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the configuration whenever the config file changes.
// Invalid edits are logged and ignored; onChange sees only valid configs.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.File() == "" {
		return
	}
	log := logger.WithComponent("config")

	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(l.v)
		if err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Invalid config ignored")
			return
		}
		l.current.Store(cfg)
		log.Info().Str("file", e.Name).Msg("Config reloaded")
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("processed_dir", d.ProcessedDir)
	v.SetDefault("error_dir", d.ErrorDir)
	v.SetDefault("invoice_prefix", d.InvoicePrefix)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("render_pdf", d.RenderPDF)
	v.SetDefault("watch_debounce", d.WatchDebounce)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("google_sheet_url", d.GoogleSheetURL)
	v.SetDefault("google_sheet_worksheet", d.GoogleSheetWorksheet)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_time_format", d.LogTimeFormat)
	v.SetDefault("log_output", d.LogOutput)

	// Registered so INVOICER_COMPANY_* overrides are picked up.
	for _, key := range []string{"name", "address", "postal_code", "city", "vat_number", "coc_number", "iban", "email"} {
		v.SetDefault("company."+key, "")
	}
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints, including the company profile.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// Company returns the seller profile used by the PDF renderer.
func (c *Config) Company() models.Company {
	return c.CompanyProfile
}
