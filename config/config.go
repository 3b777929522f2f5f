// Package config loads runtime settings from defaults, an optional config
// file, a .env file and STOCHSIM_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Tradier    TradierConfig    `mapstructure:"tradier"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Server     ServerConfig     `mapstructure:"server"`
	Slack      SlackConfig      `mapstructure:"slack"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TradierConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

type SimulationConfig struct {
	// Workers > 1 enables parallel path generation.
	Workers int `mapstructure:"workers"`
	// Seed, when non-zero, makes every run reproducible.
	Seed          uint64 `mapstructure:"seed"`
	DefaultPaths  int    `mapstructure:"default_paths"`
	DefaultSteps  int    `mapstructure:"default_steps"`
	LookbackYears int    `mapstructure:"lookback_years"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SlackConfig struct {
	AppToken string `mapstructure:"app_token"`
	BotToken string `mapstructure:"bot_token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tradier.token", "")
	v.SetDefault("tradier.base_url", "https://api.tradier.com")
	v.SetDefault("simulation.workers", 1)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.default_paths", 1000)
	v.SetDefault("simulation.default_steps", 252)
	v.SetDefault("simulation.lookback_years", 1)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("slack.app_token", "")
	v.SetDefault("slack.bot_token", "")
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and the environment are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STOCHSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare variable names used by existing .env files.
	_ = v.BindEnv("tradier.token", "STOCHSIM_TRADIER_TOKEN", "TRADIER_KEY")
	_ = v.BindEnv("slack.app_token", "STOCHSIM_SLACK_APP_TOKEN", "SLACK_APP_TOKEN")
	_ = v.BindEnv("slack.bot_token", "STOCHSIM_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Simulation.Workers < 0:
		return fmt.Errorf("config: simulation.workers must be >= 0, got %d", c.Simulation.Workers)
	case c.Simulation.DefaultPaths < 1:
		return fmt.Errorf("config: simulation.default_paths must be >= 1, got %d", c.Simulation.DefaultPaths)
	case c.Simulation.DefaultSteps < 1:
		return fmt.Errorf("config: simulation.default_steps must be >= 1, got %d", c.Simulation.DefaultSteps)
	case c.Simulation.LookbackYears < 1:
		return fmt.Errorf("config: simulation.lookback_years must be >= 1, got %d", c.Simulation.LookbackYears)
	}
	return nil
}
