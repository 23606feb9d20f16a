// Package config loads Sipzy settings from defaults, an optional config
// file, SIPZY_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/sipzy/internal/blockchain"
	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ledger"
	"github.com/rovshanmuradov/sipzy/internal/logger"
	"github.com/rovshanmuradov/sipzy/internal/monitor"
)

const envPrefix = "SIPZY"

type Config struct {
	// Curve economics
	CreatorBasePrice float64 `mapstructure:"creator_base_price"`
	VideoBasePrice   float64 `mapstructure:"video_base_price"`
	BaseSlope        float64 `mapstructure:"base_slope"`
	VideoGrowthRate  float64 `mapstructure:"video_growth_rate"`
	CreatorFee       float64 `mapstructure:"creator_fee"`
	VideoFee         float64 `mapstructure:"video_fee"`
	PlatformFee      float64 `mapstructure:"platform_fee"`
	MaxCreatorSupply uint64  `mapstructure:"max_creator_supply"`
	MaxVideoSupply   uint64  `mapstructure:"max_video_supply"`

	// Ledger
	InitialAllocation uint64  `mapstructure:"initial_allocation"`
	StartingBalance   float64 `mapstructure:"starting_balance"`
	HistoryLimit      int     `mapstructure:"history_limit"`
	MinChartPoints    int     `mapstructure:"min_chart_points"`
	ChartPoints       int     `mapstructure:"chart_points"`

	// Infrastructure
	EventBuffer          int           `mapstructure:"event_buffer"`
	JournalDir           string        `mapstructure:"journal_dir"`
	JournalFlush         time.Duration `mapstructure:"journal_flush"`
	ProgramID            string        `mapstructure:"program_id"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`
	AlertVolumeThreshold float64       `mapstructure:"alert_volume_threshold"`
	AlertPriceMove       float64       `mapstructure:"alert_price_move"`

	// Logging
	LogFile       string `mapstructure:"log_file"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxAge     int    `mapstructure:"log_max_age"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogCompress   bool   `mapstructure:"log_compress"`
	Debug         bool   `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	econ := curve.DefaultEconomics()
	led := ledger.DefaultConfig()
	logCfg := logger.DefaultConfig()
	alerts := monitor.DefaultAlertConfig()

	defaults := map[string]interface{}{
		"creator_base_price": econ.CreatorBasePrice,
		"video_base_price":   econ.VideoBasePrice,
		"base_slope":         econ.BaseSlope,
		"video_growth_rate":  econ.VideoGrowthRate,
		"creator_fee":        econ.CreatorTokenFee,
		"video_fee":          econ.VideoTokenFee,
		"platform_fee":       econ.PlatformFee,
		"max_creator_supply": econ.MaxCreatorSupply,
		"max_video_supply":   econ.MaxVideoSupply,

		"initial_allocation": led.InitialAllocation,
		"starting_balance":   led.StartingBalance,
		"history_limit":      led.HistoryLimit,
		"min_chart_points":   led.MinChartPoints,
		"chart_points":       led.ChartPoints,

		"event_buffer":           256,
		"journal_dir":            "./data",
		"journal_flush":          30 * time.Second,
		"program_id":             blockchain.DefaultProgramID,
		"metrics_addr":           "",
		"alert_volume_threshold": alerts.VolumeThreshold,
		"alert_price_move":       alerts.PriceMovePercent,

		"log_file":        logCfg.LogFile,
		"log_max_size":    logCfg.MaxSize,
		"log_max_age":     logCfg.MaxAge,
		"log_max_backups": logCfg.MaxBackups,
		"log_compress":    logCfg.Compress,
		"debug":           false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load merges defaults, the config file, environment variables and flags.
// Flag names use dashes; they bind to the underscored key of the same name.
// An empty cfgFile looks for an optional sipzy.{yaml,json} in the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("sipzy")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
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

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if err := c.Economics().Validate(); err != nil {
		return fmt.Errorf("invalid economics: %w", err)
	}
	if c.EventBuffer <= 0 {
		return errors.New("event_buffer must be positive")
	}
	if c.AlertVolumeThreshold < 0 || c.AlertPriceMove < 0 {
		return errors.New("alert thresholds must not be negative")
	}
	if _, err := blockchain.NewDeriver(c.ProgramID); err != nil {
		return err
	}
	return c.Ledger().Validate()
}

// Economics returns the curve constants.
func (c *Config) Economics() curve.Economics {
	return curve.Economics{
		CreatorBasePrice: c.CreatorBasePrice,
		VideoBasePrice:   c.VideoBasePrice,
		BaseSlope:        c.BaseSlope,
		VideoGrowthRate:  c.VideoGrowthRate,
		CreatorTokenFee:  c.CreatorFee,
		VideoTokenFee:    c.VideoFee,
		PlatformFee:      c.PlatformFee,
		MaxCreatorSupply: c.MaxCreatorSupply,
		MaxVideoSupply:   c.MaxVideoSupply,
	}
}

// Ledger returns the ledger configuration.
func (c *Config) Ledger() ledger.Config {
	return ledger.Config{
		Economics:         c.Economics(),
		InitialAllocation: c.InitialAllocation,
		StartingBalance:   c.StartingBalance,
		HistoryLimit:      c.HistoryLimit,
		MinChartPoints:    c.MinChartPoints,
		ChartPoints:       c.ChartPoints,
	}
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		LogFile:    c.LogFile,
		MaxSize:    c.LogMaxSize,
		MaxAge:     c.LogMaxAge,
		MaxBackups: c.LogMaxBackups,
		Compress:   c.LogCompress,
		Debug:      c.Debug,
	}
}

// Alerts returns the alert thresholds.
func (c *Config) Alerts() monitor.AlertConfig {
	alerts := monitor.DefaultAlertConfig()
	alerts.VolumeThreshold = c.AlertVolumeThreshold
	alerts.PriceMovePercent = c.AlertPriceMove
	return alerts
}
