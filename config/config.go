package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SMARTDELIVERY_SERVER_PORT.
const EnvPrefix = "SMARTDELIVERY"

// Fan-out backend names.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		LogLevel        string        `mapstructure:"log_level"`
		LogFormat       string        `mapstructure:"log_format"`
	} `mapstructure:"server"`

	Store struct {
		DBPath string `mapstructure:"db_path"`
		Debug  bool   `mapstructure:"debug"`
	} `mapstructure:"store"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
		Issuer    string        `mapstructure:"issuer"`
	} `mapstructure:"auth"`

	Fanout struct {
		Backend       string `mapstructure:"backend"` // "local" or "redis"
		RedisAddr     string `mapstructure:"redis_addr"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
		ChannelPrefix string `mapstructure:"channel_prefix"`
	} `mapstructure:"fanout"`

	Transport struct {
		SendBuffer     int           `mapstructure:"send_buffer"`
		WriteWait      time.Duration `mapstructure:"write_wait"`
		PongWait       time.Duration `mapstructure:"pong_wait"`
		MaxMessageSize int64         `mapstructure:"max_message_size"`
	} `mapstructure:"transport"`

	Realtime struct {
		EchoToSender      bool `mapstructure:"echo_to_sender"`
		RequireMembership bool `mapstructure:"require_membership"`
	} `mapstructure:"realtime"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")

	v.SetDefault("store.db_path", "smartdelivery.db")
	v.SetDefault("store.debug", false)

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "smart-delivery")

	v.SetDefault("fanout.backend", BackendLocal)
	v.SetDefault("fanout.redis_addr", "localhost:6379")
	v.SetDefault("fanout.redis_password", "")
	v.SetDefault("fanout.redis_db", 0)
	v.SetDefault("fanout.channel_prefix", "delivery:")

	v.SetDefault("transport.send_buffer", 256)
	v.SetDefault("transport.write_wait", "10s")
	v.SetDefault("transport.pong_wait", "60s")
	v.SetDefault("transport.max_message_size", 4096)

	v.SetDefault("realtime.echo_to_sender", false)
	v.SetDefault("realtime.require_membership", true)
}

// Load builds the configuration from defaults, an optional config.yaml
// found in paths (or the working directory), a .env file and the
// environment, in increasing order of precedence.
func Load(paths ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Fanout.Backend {
	case BackendLocal, BackendRedis:
	default:
		return fmt.Errorf("unknown fanout.backend %q", c.Fanout.Backend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Transport.SendBuffer <= 0 {
		return fmt.Errorf("transport.send_buffer must be positive, got %d", c.Transport.SendBuffer)
	}
	return nil
}
