// Package config loads runtime settings from the environment (optionally
// seeded from a .env file) and holds workflow constants.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration.
type Config struct {
	Env      string `mapstructure:"app_env"`
	HTTPAddr string `mapstructure:"http_addr"`
	DBDSN    string `mapstructure:"db_dsn"`
	RedisURL string `mapstructure:"redis_url"`

	JWTSecret string `mapstructure:"jwt_secret"`

	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	MailFrom       string `mapstructure:"mail_from"`
	MailFromName   string `mapstructure:"mail_from_name"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`

	// ChatPolicy selects who talks when a maintainer is assigned:
	// "staff_maintainer" or "maintainer_citizen".
	ChatPolicy string `mapstructure:"chat_policy"`

	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	ReportLockTTL    time.Duration `mapstructure:"report_lock_ttl"`
	DeliveryTimeout  time.Duration `mapstructure:"delivery_timeout"`

	// LocalizationDir overrides the compiled-in message catalogs when set.
	LocalizationDir string `mapstructure:"localization_dir"`

	CORSOrigins []string `mapstructure:"cors_origins"`
}

var defaults = map[string]any{
	"app_env":            "development",
	"http_addr":          ":8080",
	"db_dsn":             "host=localhost user=user password=password dbname=civicreport port=5432 sslmode=disable",
	"redis_url":          "",
	"jwt_secret":         "",
	"sendgrid_api_key":   "",
	"mail_from":          "no-reply@civicreport.local",
	"mail_from_name":     "Civic Report",
	"telegram_bot_token": "",
	"chat_policy":        "staff_maintainer",
	"operation_timeout":  DefaultOperationTimeout,
	"report_lock_ttl":    DefaultReportLockTTL,
	"delivery_timeout":   DefaultDeliveryTimeout,
	"localization_dir":   "",
	"cors_origins":       []string{"*"},
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Environment variables win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the environment.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	return &cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
