package store

import (
	"context"
	"fmt"
	"time"
)

// Supported driver names.
const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config selects and configures a persistence driver.
type Config struct {
	Driver string

	MongoURI      string
	MongoDatabase string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisSessionTTL time.Duration

	SQLitePath string
}

// New creates a Repository for the configured driver.
func New(ctx context.Context, cfg Config) (Repository, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverMongo:
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case DriverRedis:
		return NewRedis(RedisConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			SessionTTL: cfg.RedisSessionTTL,
		})
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
