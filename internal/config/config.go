package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	StorageFile string
	Storage     string
	DatabaseURL string
	Port        string
	LogLevel    string
}

func Load() Config {
	return Config{
		StorageFile: getEnv("TASKS_FILE", "task_storage.json"),
		Storage:     strings.ToLower(getEnv("TASKS_STORAGE", StorageFile)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
	}
}

// Validate проверяет комбинацию параметров после применения флагов командной строки.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageFile:
		if strings.TrimSpace(c.StorageFile) == "" {
			return errors.New("storage file path is empty")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q (want %q or %q)", c.Storage, StorageFile, StoragePostgres)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
