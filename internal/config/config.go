package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment   string
	TelegramToken string
	Storage       string
	DBDSN         string

	MigrationsPath       string
	ScheduleHorizonDays  int
	NotifyInterval       time.Duration
	BookingRatePerMinute int
	AdminTelegramIDs     []int64
	SeedDemo             bool

	// EnvFileLoaded true если переменные подтянуты из .env
	EnvFileLoaded bool
}

// Load читает .env (если он есть) и переменные окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка
	loaded := godotenv.Load(".env") == nil
	return FromEnv(loaded)
}

// FromEnv собирает конфиг из текущего окружения без чтения .env
func FromEnv(envFileLoaded bool) (*Config, error) {
	cfg := &Config{
		Environment:    getenv("ENV", "development"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		Storage:        strings.ToLower(getenv("STORAGE", StoragePostgres)),
		DBDSN:          os.Getenv("DB_DSN"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
		EnvFileLoaded:  envFileLoaded,
	}

	var err error

	if cfg.ScheduleHorizonDays, err = intVar("SCHEDULE_HORIZON_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.ScheduleHorizonDays < 0 {
		return nil, fmt.Errorf("SCHEDULE_HORIZON_DAYS must be >= 0, got %d", cfg.ScheduleHorizonDays)
	}

	if cfg.NotifyInterval, err = durationVar("NOTIFY_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.NotifyInterval <= 0 {
		return nil, fmt.Errorf("NOTIFY_INTERVAL must be positive, got %s", cfg.NotifyInterval)
	}

	if cfg.BookingRatePerMinute, err = intVar("BOOKING_RATE_PER_MINUTE", 6); err != nil {
		return nil, err
	}
	if cfg.BookingRatePerMinute <= 0 {
		return nil, fmt.Errorf("BOOKING_RATE_PER_MINUTE must be positive, got %d", cfg.BookingRatePerMinute)
	}

	if cfg.AdminTelegramIDs, err = idsVar("ADMIN_TELEGRAM_IDS"); err != nil {
		return nil, err
	}

	if cfg.SeedDemo, err = boolVar("SEED_DEMO", false); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intVar(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationVar(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func boolVar(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func idsVar(key string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
