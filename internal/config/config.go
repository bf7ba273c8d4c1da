// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tripflow/tripflow/internal/llm"
	"github.com/tripflow/tripflow/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	AllowedOrigins []string

	Store StoreConfig
	LLM   LLMConfig
	Chat  ChatConfig
}

// StoreConfig selects and configures the session store driver.
type StoreConfig struct {
	Driver        string // memory, mongo, redis, sqlite
	MongoURL      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	SQLitePath    string
}

// LLMConfig configures the model client.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ChatConfig tunes conversation behavior.
type ChatConfig struct {
	DefaultOrigin string
	ThinkPause    time.Duration
	GreetingPause time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		Store: StoreConfig{
			Driver:        getEnv("STORE_DRIVER", store.DriverMemory),
			MongoURL:      getEnv("MONGODB_URL", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "travel-bot"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisTTL:      getEnvDuration("REDIS_SESSION_TTL", 0),
			SQLitePath:    getEnv("DB_PATH", "./data/tripflow.db"),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", "")),
			BaseURL: getEnv("LLM_BASE_URL", llm.DefaultBaseURL),
			Model:   getEnv("LLM_MODEL", llm.DefaultModel),
		},
		Chat: ChatConfig{
			DefaultOrigin: getEnv("DEFAULT_ORIGIN", "India"),
			ThinkPause:    getEnvDuration("THINK_PAUSE", time.Second),
			GreetingPause: getEnvDuration("GREETING_PAUSE", 500*time.Millisecond),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY (or GROQ_API_KEY) must be set")
	}
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverMongo, store.DriverRedis, store.DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Driver == store.DriverSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
