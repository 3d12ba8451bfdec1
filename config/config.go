/*
config.go - Runtime configuration for the hours engine

PURPOSE:
  Loads server, storage, logging and engine settings from defaults, an
  optional YAML file and HOURS_* environment variables.

PRECEDENCE:
  environment > config file > defaults

  Keys are dotted (engine.tiers.high); the matching variable replaces dots
  with underscores: HOURS_ENGINE_TIERS_HIGH=90.

EXAMPLE FILE:
  server:
    port: 8080
  db:
    path: hours.db
  engine:
    extra_duty_policy: additive
    tiers:
      high: 95
      acceptable: 85

SEE ALSO:
  - logger.go: Builds the zap logger from LogConfig
  - cmd/server/main.go: Loads the config before every command
*/
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DBConfig points at the SQLite file. ":memory:" keeps everything in
// process.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console

	// Optional rotating file sink, written in addition to stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type EngineConfig struct {
	ExtraDutyPolicy    string      `mapstructure:"extra_duty_policy"`
	DefaultEfficiency  float64     `mapstructure:"default_efficiency"`
	Tiers              TiersConfig `mapstructure:"tiers"`
	SkipInvalidMembers bool        `mapstructure:"skip_invalid_members"`
}

type TiersConfig struct {
	High       float64 `mapstructure:"high"`
	Acceptable float64 `mapstructure:"acceptable"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from path (or ./config.yaml, ./config/config.yaml
// when path is empty), the environment and defaults. A missing default file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HOURS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("db.path", "hours.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("engine.extra_duty_policy", string(hours.ExtraDutyInformational))
	v.SetDefault("engine.default_efficiency", 100)
	v.SetDefault("engine.tiers.high", 95)
	v.SetDefault("engine.tiers.acceptable", 85)
	v.SetDefault("engine.skip_invalid_members", false)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("invalid config: db.path must not be empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid config: log.format must be json or console, got %q", c.Log.Format)
	}
	if _, err := hours.ParseExtraDutyPolicy(c.Engine.ExtraDutyPolicy); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// Zero is how accounting.Options spells "unset", so it cannot be a
	// configured value.
	if c.Engine.DefaultEfficiency <= 0 {
		return fmt.Errorf("invalid config: engine.default_efficiency must be positive, got %v", c.Engine.DefaultEfficiency)
	}
	if c.Engine.Tiers.High <= 0 {
		return fmt.Errorf("invalid config: engine.tiers.high must be positive, got %v", c.Engine.Tiers.High)
	}
	if err := c.Engine.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Thresholds converts the tier settings to engine thresholds.
func (e EngineConfig) Thresholds() hours.TierThresholds {
	return hours.TierThresholds{
		High:       decimal.NewFromFloat(e.Tiers.High),
		Acceptable: decimal.NewFromFloat(e.Tiers.Acceptable),
	}
}

// ServiceOptions builds accounting options from the engine settings.
func (c *Config) ServiceOptions(logger *zap.Logger) accounting.Options {
	return accounting.Options{
		ExtraDuty:          hours.ExtraDutyPolicy(c.Engine.ExtraDutyPolicy),
		DefaultEfficiency:  decimal.NewFromFloat(c.Engine.DefaultEfficiency),
		Tiers:              c.Engine.Thresholds(),
		SkipInvalidMembers: c.Engine.SkipInvalidMembers,
		Logger:             logger,
	}
}
