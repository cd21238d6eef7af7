package mirsal

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client configuration, read from config.yaml in the config
// directory and overridden by MIRSAL_ environment variables.
type Config struct {
	viper       *viper.Viper
	ConfigDir   string        `mapstructure:"config_dir"`   // Directory holding config.yaml
	APIBase     string        `mapstructure:"api_base"`     // Base URL relative spec URLs resolve against
	Timeout     time.Duration `mapstructure:"timeout"`      // Per request timeout of the default transport, 0 for none
	UserAgent   string        `mapstructure:"user_agent"`   // User-Agent header value
	RateLimit   float64       `mapstructure:"rate_limit"`   // Requests per second, 0 for unlimited
	RateBurst   int           `mapstructure:"rate_burst"`   // Burst size of the rate limiter
	JournalPath string        `mapstructure:"journal_path"` // SQLite journal file, empty to disable
	LogLevel    string        `mapstructure:"log_level"`    // debug, info, warn or error
	AuthScope   []string      `mapstructure:"auth_scope"`   // Extra host patterns that receive the bearer token, "-" prefix excludes
	TLSHello    string        `mapstructure:"tls_hello"`    // Browser ClientHello to present, empty for Go's own TLS
}

const (
	defaultUserAgent = "mirsal"
	defaultTimeout   = 30 * time.Second
	defaultRateBurst = 10
)

// DefaultConfig returns the configuration used when no config directory is set.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		viper:     v,
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
		RateBurst: defaultRateBurst,
		LogLevel:  "info",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", "")
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", defaultRateBurst)
	v.SetDefault("journal_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth_scope", []string{})
	v.SetDefault("tls_hello", "")
}

// LoadConfig reads config.yaml from dir, creating dir and writing a default
// file on first run.
func LoadConfig(dir string) (*Config, error) {
	if _, err := os.ReadDir(dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking if directory exists %s : %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating config dir %s : %w", dir, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("MIRSAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing config file : %w", err)
		}
	}

	cfg := &Config{viper: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	cfg.ConfigDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail on first use.
func (cfg *Config) Validate() error {
	if cfg.APIBase != "" {
		base, err := url.Parse(cfg.APIBase)
		if err != nil {
			return fmt.Errorf("parsing api_base %q : %w", cfg.APIBase, err)
		}
		if base.Scheme == "" || base.Host == "" {
			return fmt.Errorf("api_base %q must be an absolute URL", cfg.APIBase)
		}
	}
	if _, ok := clientHellos[cfg.TLSHello]; cfg.TLSHello != "" && !ok {
		return fmt.Errorf("tls_hello must be one of %s, got %q", strings.Join(ClientHelloNames(), ", "), cfg.TLSHello)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", cfg.RateLimit)
	}
	return nil
}

// Set updates one key and writes the config file.
func (cfg *Config) Set(key string, value any) error {
	if cfg.viper == nil || cfg.ConfigDir == "" {
		return fmt.Errorf("config was not loaded from a directory")
	}
	cfg.viper.Set(key, value)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration : %w", err)
	}
	if err := cfg.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return cfg.Validate()
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (cfg *Config) SlogLevel() slog.Level {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
