package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Socket    SocketConfig    `mapstructure:"socket"`
	Push      PushConfig      `mapstructure:"push"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// ServerConfig points the client at a Cosense host.
type ServerConfig struct {
	Host string `mapstructure:"host"` // e.g., "https://scrapbox.io"
}

// SessionConfig holds the session cookie used for REST and socket calls.
type SessionConfig struct {
	SID string `mapstructure:"sid"`
}

// SocketConfig holds socket.io transport settings.
type SocketConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// PushConfig holds commit retry settings.
type PushConfig struct {
	MaxAttempts int `mapstructure:"maxAttempts"` // 0 means unbounded
}

// CacheConfig holds settings for the user/project id cache.
type CacheConfig struct {
	FilePath string        `mapstructure:"filePath"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// DevServerConfig holds settings for the local fake service.
type DevServerConfig struct {
	Port     string   `mapstructure:"port"`
	Projects []string `mapstructure:"projects"`
	UserName string   `mapstructure:"userName"`
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "https://scrapbox.io")
	v.SetDefault("socket.timeout", 90*time.Second)
	v.SetDefault("push.maxAttempts", 3)
	v.SetDefault("cache.filePath", "cosense-cache.db")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("devserver.port", "8090")
	v.SetDefault("devserver.projects", []string{"dev"})
	v.SetDefault("devserver.userName", "dev")

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-cosense/")
	v.AddConfigPath("$HOME/.go-cosense")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file; defaults and env vars only.
	}

	v.SetEnvPrefix("COSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
