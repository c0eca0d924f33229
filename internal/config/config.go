package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Business   BusinessConfig   `mapstructure:"business"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Paystack   PaystackConfig   `mapstructure:"paystack"`
	BoostPanel BoostPanelConfig `mapstructure:"boost_panel"`
	Mail       MailConfig       `mapstructure:"mail"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	LedgerEvents string `mapstructure:"ledger_events"`
	AdminNotify  string `mapstructure:"admin_notify"`
}

type BusinessConfig struct {
	MaxRetryCount          int    `mapstructure:"max_retry_count"`
	ServiceCostPerPlatform int64  `mapstructure:"service_cost_per_platform"`
	AutomaticBoostPlatform string `mapstructure:"automatic_boost_platform"`
	DepositCurrency        string `mapstructure:"deposit_currency"`
	StaleDepositMinutes    int    `mapstructure:"stale_deposit_minutes"`
	ReconcileSchedule      string `mapstructure:"reconcile_schedule"`
	BoostSyncSchedule      string `mapstructure:"boost_sync_schedule"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	Issuer string        `mapstructure:"issuer"`
}

type PaystackConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	SecretKey   string        `mapstructure:"secret_key"`
	CallbackURL string        `mapstructure:"callback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type BoostPanelConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MailConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	AdminEmail string `mapstructure:"admin_email"`
}

type RateLimitConfig struct {
	AuthRPS   float64 `mapstructure:"auth_rps"`
	AuthBurst int     `mapstructure:"auth_burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("kafka.topic.ledger_events", "linkmart.ledger")
	v.SetDefault("kafka.topic.admin_notify", "linkmart.admin")
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.service_cost_per_platform", 10)
	v.SetDefault("business.automatic_boost_platform", "tiktok")
	v.SetDefault("business.deposit_currency", "NGN")
	v.SetDefault("business.stale_deposit_minutes", 30)
	v.SetDefault("business.reconcile_schedule", "@every 5m")
	v.SetDefault("business.boost_sync_schedule", "@every 2m")
	v.SetDefault("jwt.ttl", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "linkmart")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.timeout", 15*time.Second)
	v.SetDefault("boost_panel.timeout", 15*time.Second)
	v.SetDefault("mail.port", 587)
	v.SetDefault("rate_limit.auth_rps", 5)
	v.SetDefault("rate_limit.auth_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// envOnlyKeys have no default and are usually absent from the YAML file;
// viper only unmarshals env values for keys it already knows about.
var envOnlyKeys = []string{
	"database.host",
	"database.user",
	"database.password",
	"database.database",
	"redis.host",
	"redis.password",
	"jwt.secret",
	"paystack.secret_key",
	"paystack.callback_url",
	"boost_panel.api_url",
	"boost_panel.api_key",
	"mail.host",
	"mail.username",
	"mail.password",
	"mail.admin_email",
}

// Load reads the YAML file at configPath, then lets LINKMART_* environment
// variables (including those from a local .env) override it.
func Load(configPath string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LINKMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Paystack.SecretKey == "" {
		return errors.New("paystack.secret_key is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}
