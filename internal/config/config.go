package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type RulesConfig struct {
	StrictTurns       bool `mapstructure:"strict_turns"`
	StrictVotes       bool `mapstructure:"strict_votes"`
	StrictPhases      bool `mapstructure:"strict_phases"`
	MinPlayers        int  `mapstructure:"min_players"`
	ReportMissingRoom bool `mapstructure:"report_missing_room"`
	StrictNames       bool `mapstructure:"strict_names"`
}

type AppConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// 为空时不托管前端静态资源
	StaticDir     string `mapstructure:"static_dir"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
	PublicURL     string `mapstructure:"public_url"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`

	DefaultWords []string    `mapstructure:"default_words"`
	Rules        RulesConfig `mapstructure:"rules"`
}

const (
	configName = "app_config"
	envPrefix  = "IMPOSTER"
)

// InitConfig loads the configuration from the working directory and panics on failure.
func InitConfig() *AppConfig {
	config, err := Load(".")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	return config
}

// Load reads app_config.json from dir if present, then applies .env and
// IMPOSTER_* environment overrides on top of the defaults.
func Load(dir string) (*AppConfig, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("port", envPrefix+"_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("static_dir", "")
	v.SetDefault("allowed_origin", "*")
	v.SetDefault("public_url", "http://localhost:3001")
	v.SetDefault("request_timeout", "5s")
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("default_words", []string{"Apple", "Banana", "Car", "Dog", "Elephant"})
	v.SetDefault("rules.strict_turns", false)
	v.SetDefault("rules.strict_votes", false)
	v.SetDefault("rules.strict_phases", false)
	v.SetDefault("rules.min_players", 0)
	v.SetDefault("rules.report_missing_room", false)
	v.SetDefault("rules.strict_names", false)
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if len(c.DefaultWords) < 5 {
		return fmt.Errorf("default_words needs at least 5 entries, got %d", len(c.DefaultWords))
	}
	if c.Rules.MinPlayers < 0 {
		return fmt.Errorf("rules.min_players must not be negative")
	}

	return nil
}
