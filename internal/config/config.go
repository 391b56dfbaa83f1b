package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Sizing   SizingConfig   `mapstructure:"sizing"`
	Cron     CronConfig     `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// WebhookConfig controls the inbound alert surface. AllowedSources is the
// source-IP allow-list for the charting webhook; an empty list disables the
// filter (for deployments that filter upstream at the gateway).
type WebhookConfig struct {
	AllowedSources []string `mapstructure:"allowed_sources"`
}

type PipelineConfig struct {
	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
}

type DispatchConfig struct {
	Brokers     string        `mapstructure:"brokers"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	DeliveryTTL time.Duration `mapstructure:"delivery_ttl"`
}

type ExtractConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Channels []string      `mapstructure:"channels"`
}

// SizingConfig selects the opening-order quantity sizer. Mode "none" leaves
// the opening quantity unset; mode "percent" sizes from a fixed account
// balance and the subscription's portfolio percentage.
type SizingConfig struct {
	Mode    string `mapstructure:"mode"`
	Balance string `mapstructure:"balance"`
}

type CronConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RelayRetention string        `mapstructure:"relay_retention"`
	RelayMaxAge    time.Duration `mapstructure:"relay_max_age"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("webhook.allowed_sources", []string{
		"52.89.214.238",
		"34.212.75.30",
		"54.218.53.128",
		"52.32.178.7",
	})
	v.SetDefault("pipeline.store_timeout", "5s")
	v.SetDefault("pipeline.dispatch_timeout", "10s")
	v.SetDefault("dispatch.brokers", "localhost:9092")
	v.SetDefault("dispatch.topic_prefix", "orders")
	v.SetDefault("dispatch.delivery_ttl", "10s")
	v.SetDefault("extract.base_url", "")
	v.SetDefault("extract.timeout", "30s")
	v.SetDefault("extract.channels", []string{"HRJ", "FJ"})
	v.SetDefault("sizing.mode", "none")
	v.SetDefault("sizing.balance", "0")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.relay_retention", "0 0 3 * * *")
	v.SetDefault("cron.relay_max_age", "720h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
