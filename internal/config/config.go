// Package config loads runtime settings from flags, the environment and .env
package config

import (
	"fmt"
	"strings"

	"github.com/abelzeko/med-validator/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default locations, relative to the working directory
const (
	DefaultDatabasePath = "hospital_data.db"
	DefaultReportPath   = "reports/validation_report.xlsx"
)

// Config holds the settings of one validation run
type Config struct {
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	ReportPath   string `mapstructure:"REPORT_PATH"`
	Schema       string `mapstructure:"DB_SCHEMA"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	Env          string `mapstructure:"ENV"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"database":  "DATABASE_PATH",
	"output":    "REPORT_PATH",
	"schema":    "DB_SCHEMA",
	"log-level": "LOG_LEVEL",
}

// RegisterFlags adds the optional overrides to a flag set
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("database", DefaultDatabasePath, "SQLite database file, postgres:// URL or libpq keyword DSN (host=... dbname=...)")
	flags.String("output", DefaultReportPath, "Path of the generated .xlsx report")
	flags.String("schema", repository.CurrentSchema.Name, "Table layout: "+strings.Join(repository.SchemaNames(), " or "))
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
}

// Load reads defaults, an optional .env file, environment variables and,
// when flags is non-nil, any flags that were set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("DATABASE_PATH", DefaultDatabasePath)
	v.SetDefault("REPORT_PATH", DefaultReportPath)
	v.SetDefault("DB_SCHEMA", repository.CurrentSchema.Name)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "production")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("DATABASE_PATH")
	v.BindEnv("REPORT_PATH")
	v.BindEnv("DB_SCHEMA")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("ENV")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// The .env file is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether ENV is development
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the parsed log level, defaulting to info
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// SchemaPreset resolves the configured table layout
func (c *Config) SchemaPreset() (repository.Schema, error) {
	return repository.SchemaByName(c.Schema)
}

// Validate checks that both paths are set and that the schema and log level are known.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if strings.TrimSpace(c.ReportPath) == "" {
		return fmt.Errorf("REPORT_PATH is required")
	}
	if _, err := c.SchemaPreset(); err != nil {
		return fmt.Errorf("DB_SCHEMA: %w", err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}
