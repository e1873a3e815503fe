// Package config handles configuration loading for the pynvestor dashboard.
// It supports YAML config files with .env and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PYNVESTOR"

// Config represents the complete application configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	UI      UIConfig      `mapstructure:"ui"      yaml:"ui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// BackendConfig points the dashboard at the scoring/optimizer service.
type BackendConfig struct {
	BaseURL     string `mapstructure:"base_url"      yaml:"base_url"`
	TimeoutSec  int    `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"` // 0 disables the screener cache
	UserAgent   string `mapstructure:"user_agent"    yaml:"user_agent"`
	APIToken    string `mapstructure:"api_token"     yaml:"api_token"` // sent as a bearer token when set
}

// Timeout returns the per-request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// CacheTTL returns how long screener results stay cached.
func (b BackendConfig) CacheTTL() time.Duration {
	return time.Duration(b.CacheTTLSec) * time.Second
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns the listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// UIConfig holds the markup contract between the page and the controllers.
type UIConfig struct {
	ChartPath string         `mapstructure:"chart_path" yaml:"chart_path"` // target of ISIN hyperlinks
	Bindings  BindingsConfig `mapstructure:"bindings"   yaml:"bindings"`
}

// BindingsConfig names the element ids the controllers read and write.
type BindingsConfig struct {
	ScreenerForm   string `mapstructure:"screener_form"   yaml:"screener_form"`
	ScreenerResult string `mapstructure:"screener_result" yaml:"screener_result"`
	ResultBlock    string `mapstructure:"result_block"    yaml:"result_block"`
	WeightsData    string `mapstructure:"weights_data"    yaml:"weights_data"`
	WeightsDisplay string `mapstructure:"weights_display" yaml:"weights_display"`
	OptimizerChart string `mapstructure:"optimizer_chart" yaml:"optimizer_chart"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"` // "debug", "info", "warn", "error"
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.pynvestor/config.yaml (home directory)
//  3. /etc/pynvestor/config.yaml (system)
//
// A .env file in the working directory is loaded first; environment variables
// override config file values.
// Format: PYNVESTOR_<SECTION>_<KEY>, e.g., PYNVESTOR_BACKEND_BASE_URL
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".pynvestor"))
	v.AddConfigPath("/etc/pynvestor")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url must be set")
	}
	if c.Backend.TimeoutSec <= 0 {
		return fmt.Errorf("backend.timeout_sec must be positive, got %d", c.Backend.TimeoutSec)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("backend.cache_ttl_sec", 0)
	v.SetDefault("backend.user_agent", "pynvestor-dashboard")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:8080"})

	// UI defaults match the dashboard markup
	v.SetDefault("ui.chart_path", "/chart")
	v.SetDefault("ui.bindings.screener_form", "screenerForm")
	v.SetDefault("ui.bindings.screener_result", "screenerResult")
	v.SetDefault("ui.bindings.result_block", "resultBlock")
	v.SetDefault("ui.bindings.weights_data", "onClickWeightsData")
	v.SetDefault("ui.bindings.weights_display", "onClickDisplay")
	v.SetDefault("ui.bindings.optimizer_chart", "optimizerChart")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		cfg.Backend.APIToken = token
	}
}

// loadDotEnv loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
