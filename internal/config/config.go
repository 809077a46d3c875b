package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // update dispatch workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"` // bearer token for /api/v1
	JWTSecret string `yaml:"jwt_secret"` // session cookie signing
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	DefaultProvider string `yaml:"default_provider"` // openai | gemini
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type PrivacyConfig struct {
	CacheTTL      time.Duration `yaml:"cache_ttl"`      // context cache entry lifetime
	SweepInterval time.Duration `yaml:"sweep_interval"` // expired-entry sweep period
	ContextWindow int           `yaml:"context_window"` // recent messages per live fetch
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 32 bytes; generated if empty
	KeyFile       string `yaml:"key_file"`       // where a generated key is persisted
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Privacy  PrivacyConfig  `yaml:"privacy"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.Privacy.CacheTTL <= 0 {
		cfg.Privacy.CacheTTL = 2 * time.Hour
	}
	if cfg.Privacy.SweepInterval <= 0 {
		cfg.Privacy.SweepInterval = 5 * time.Minute
	}
	if cfg.Privacy.ContextWindow <= 0 {
		cfg.Privacy.ContextWindow = 20
	}
	if cfg.Security.KeyFile == "" {
		cfg.Security.KeyFile = ".relay_key"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
}
