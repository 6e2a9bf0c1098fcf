package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the procurement server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Email      EmailConfig      `mapstructure:"email"`
	Validation ValidationConfig `mapstructure:"validation"`
	Reminders  ReminderConfig   `mapstructure:"reminders"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address  string `mapstructure:"address"`
	LogLevel string `mapstructure:"log_level"`
	// BaseURL is used to build links in outgoing email.
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	VendorTokenTTL time.Duration `mapstructure:"vendor_token_ttl"`
}

type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig is disabled by default; outgoing mail is then written to the log.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ValidationConfig struct {
	// OnValidatorError is "allow" or "reject".
	OnValidatorError string       `mapstructure:"on_validator_error"`
	Remote           RemoteConfig `mapstructure:"remote"`
}

type RemoteConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReminderConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Schedule    string        `mapstructure:"schedule"`
	Window      time.Duration `mapstructure:"window"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads .env (if any), config.yaml (if any) and PROCUREMENT_* variables, in that order of precedence
// from lowest to highest.
func Load(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("PROCUREMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.dsn", "PROCUREMENT_DATABASE_DSN", "POSTGRES_CONN")
	_ = v.BindEnv("server.address", "PROCUREMENT_SERVER_ADDRESS", "SERVER_ADDRESS")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "procurement")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.vendor_token_ttl", "720h")

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.from", "procurement@localhost")
	v.SetDefault("email.smtp.use_tls", false)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("validation.on_validator_error", "allow")
	v.SetDefault("validation.remote.enabled", false)
	v.SetDefault("validation.remote.url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("validation.remote.api_key", "")
	v.SetDefault("validation.remote.model", "deepseek-chat")
	v.SetDefault("validation.remote.timeout", "15s")

	v.SetDefault("reminders.enabled", false)
	v.SetDefault("reminders.schedule", "@every 1h")
	v.SetDefault("reminders.window", "48h")
	v.SetDefault("reminders.min_interval", "24h")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	switch c.Validation.OnValidatorError {
	case "allow", "reject":
	default:
		return fmt.Errorf("config: validation.on_validator_error must be allow or reject, got %q", c.Validation.OnValidatorError)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Email.SMTP.Enabled && strings.TrimSpace(c.Email.SMTP.Host) == "" {
		return errors.New("config: email.smtp.host is required when smtp is enabled")
	}
	if c.Validation.Remote.Enabled && strings.TrimSpace(c.Validation.Remote.APIKey) == "" {
		return errors.New("config: validation.remote.api_key is required when remote validation is enabled")
	}
	return nil
}
