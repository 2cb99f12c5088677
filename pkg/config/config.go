// Package config loads fbwire's connection configuration the way
// dittofs loads its server configuration: environment variables override
// a YAML file, which overrides built-in defaults
// (_examples/marmos91-dittofs/pkg/config/config.go's precedence order,
// narrowed to the handful of fields a wire client needs instead of a
// whole server's). No command-line flag layer is applied here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the connection configuration for a single fbwire session.
type Config struct {
	Host       string        `mapstructure:"host" yaml:"host"`
	Port       int           `mapstructure:"port" yaml:"port"`
	Database   string        `mapstructure:"database" yaml:"database"`
	User       string        `mapstructure:"user" yaml:"user"`
	Password   string        `mapstructure:"password" yaml:"password"`
	Role       string        `mapstructure:"role" yaml:"role,omitempty"`
	Charset    string        `mapstructure:"charset" yaml:"charset"`
	AuthPlugin string        `mapstructure:"auth_plugin" yaml:"auth_plugin"`
	WireCrypt  bool          `mapstructure:"wire_crypt" yaml:"wire_crypt"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls the internal/logger handler (mirrors dittofs'
// own LoggingConfig shape).
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls whether pkg/metrics registers its Prometheus
// collectors against the default registry.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// Default returns the built-in defaults: localhost:3050, SYSDBA/masterkey,
// UTF8, SRP auth, wire-crypt on, a 30s timeout, text logging at INFO.
func Default() *Config {
	return &Config{
		Host:       "localhost",
		Port:       3050,
		Database:   "",
		User:       "SYSDBA",
		Password:   "masterkey",
		Charset:    "UTF8",
		AuthPlugin: "Srp",
		WireCrypt:  true,
		Timeout:    30 * time.Second,
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Load reads configuration from configPath (or the default search path
// when empty), layering environment variables (FBWIRE_*) on top of the
// file and built-in defaults. A missing config file is not an error; the
// environment still applies. Load takes no command-line flag overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FBWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	cfg := Default()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	// AutomaticEnv only answers for keys viper already knows, so bind every
	// key for FBWIRE_* values to reach Unmarshal whether or not a file set it.
	for _, key := range []string{"host", "port", "database", "user", "password", "role", "charset",
		"auth_plugin", "wire_crypt", "timeout", "logging.level", "logging.format", "logging.output",
		"metrics.enabled", "metrics.port"} {
		_ = v.BindEnv(key)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fbwire")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fbwire")
}
