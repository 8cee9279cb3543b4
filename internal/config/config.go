package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

const (
	devJWTSecret     = "dev-only-jwt-secret-change-me-0123456789"
	devLoginPassword = "secret"
)

type Config struct {
	Env      string
	Addr     string
	LogLevel string

	Store             string
	DBDSN             string
	MongoURI          string
	MongoDB           string
	JWTSecret         string
	TokenTTL          time.Duration
	LoginPassword     string
	LoginPasswordHash string

	SubscriberBuffer   int
	SubscriberOverflow string
}

// Load reads the optional dotenv file named by APP_ENV_FILE (default .env)
// into the process environment, then loads the configuration from it.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	path := os.Getenv("APP_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := loadDotEnvFile(path, os.Setenv, os.Getenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("APP_ENV_FILE: %w", err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:                getenv("APP_ENV"),
		Addr:               getenv("APP_ADDR"),
		LogLevel:           getenv("APP_LOG_LEVEL"),
		Store:              strings.ToLower(strings.TrimSpace(getenv("APP_STORE"))),
		DBDSN:              getenv("APP_DB_DSN"),
		MongoURI:           getenv("APP_MONGO_URI"),
		MongoDB:            getenv("APP_MONGO_DB"),
		JWTSecret:          getenv("APP_JWT_SECRET"),
		LoginPassword:      getenv("APP_LOGIN_PASSWORD"),
		LoginPasswordHash:  strings.TrimSpace(getenv("APP_LOGIN_PASSWORD_HASH")),
		SubscriberOverflow: strings.TrimSpace(getenv("APP_SUBSCRIBER_OVERFLOW")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:4000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "directory"
	}

	if cfg.Store == "" {
		cfg.Store = StoreMemory
		if cfg.DBDSN != "" {
			cfg.Store = StorePostgres
		}
	}
	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required when APP_STORE=postgres")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, errors.New("APP_MONGO_URI: required when APP_STORE=mongo")
		}
	default:
		return Config{}, errors.New("APP_STORE: must be one of memory, postgres, mongo")
	}

	if raw := getenv("APP_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TOKEN_TTL: %w", err)
		}
		if ttl < 0 {
			return Config{}, errors.New("APP_TOKEN_TTL: must be >= 0")
		}
		cfg.TokenTTL = ttl
	}

	cfg.SubscriberBuffer = 64
	if raw := getenv("APP_SUBSCRIBER_BUFFER"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_SUBSCRIBER_BUFFER: %w", err)
		}
		if n <= 0 {
			return Config{}, errors.New("APP_SUBSCRIBER_BUFFER: must be > 0")
		}
		cfg.SubscriberBuffer = n
	}
	switch cfg.SubscriberOverflow {
	case "":
		cfg.SubscriberOverflow = "drop-oldest"
	case "drop-oldest", "disconnect":
	default:
		return Config{}, errors.New("APP_SUBSCRIBER_OVERFLOW: must be drop-oldest or disconnect")
	}

	if cfg.IsProd() {
		if len(cfg.JWTSecret) < 32 {
			return Config{}, errors.New("APP_JWT_SECRET: must be at least 32 bytes in prod")
		}
		if cfg.LoginPassword == "" && cfg.LoginPasswordHash == "" {
			return Config{}, errors.New("APP_LOGIN_PASSWORD or APP_LOGIN_PASSWORD_HASH: required in prod")
		}
	} else {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		if cfg.LoginPassword == "" && cfg.LoginPasswordHash == "" {
			cfg.LoginPassword = devLoginPassword
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }
