package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Store     StoreConfig       `mapstructure:"store"`
	Delivery  DeliveryConfig    `mapstructure:"delivery"`
	Chat      ChatConfig        `mapstructure:"chat"`
	Relay     RelayConfig       `mapstructure:"relay"`
	Stream    StreamConfig      `mapstructure:"stream"`
	Translate TranslateConfig   `mapstructure:"translate"`
	Signals   map[string]string `mapstructure:"signals"`
	Query     QueryConfig       `mapstructure:"query"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig bounds the in-memory event history. Capacity 0 keeps every event.
type StoreConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type DeliveryConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

type ChatConfig struct {
	APIBase string        `mapstructure:"api_base"`
	Token   string        `mapstructure:"token"`
	ChatID  string        `mapstructure:"chat_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c ChatConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != ""
}

type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c RelayConfig) Enabled() bool {
	return c.URL != ""
}

type StreamConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	Key      string        `mapstructure:"key"`
	MaxLen   int64         `mapstructure:"max_len"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (c StreamConfig) Enabled() bool {
	return c.RedisURL != ""
}

type TranslateConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Source  string        `mapstructure:"source"`
	Target  string        `mapstructure:"target"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("signalrelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/signalrelay")
	}

	setDefaults(v)

	v.SetEnvPrefix("SIGNALRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv keeps the variable names used by existing deployments working
// next to the prefixed ones.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("chat.token", "SIGNALRELAY_CHAT_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv("chat.chat_id", "SIGNALRELAY_CHAT_CHAT_ID", "CHAT_ID")
	_ = v.BindEnv("relay.url", "SIGNALRELAY_RELAY_URL", "LOCAL_RELAY_URL")
	_ = v.BindEnv("server.port", "SIGNALRELAY_SERVER_PORT", "PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("store.capacity", 1000)

	v.SetDefault("delivery.workers", 8)
	v.SetDefault("delivery.queue_size", 256)
	v.SetDefault("delivery.task_timeout", 30*time.Second)

	v.SetDefault("chat.api_base", "https://api.telegram.org")
	v.SetDefault("chat.timeout", 10*time.Second)

	v.SetDefault("relay.timeout", 3*time.Second)

	v.SetDefault("stream.key", "signalrelay:events")
	v.SetDefault("stream.max_len", 10000)
	v.SetDefault("stream.timeout", 3*time.Second)

	v.SetDefault("translate.enabled", false)
	v.SetDefault("translate.base_url", "https://translate.googleapis.com")
	v.SetDefault("translate.source", "auto")
	v.SetDefault("translate.target", "zh-TW")
	v.SetDefault("translate.timeout", 5*time.Second)

	v.SetDefault("query.default_limit", 10)
	v.SetDefault("query.max_limit", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
