package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Бэкенды хранения блобов.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	DataDir       string
	StoreBackend  string
	SQLitePath    string
	PostgresURL   string
	RedisAddr     string
	RedisPassword string

	Extractor     string
	HistogramBins int
	ForestTrees   int
	ForestSeed    uint64

	HTTPAddr      string
	TelegramToken string
	LogLevel      slog.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:       getEnv("DATA_DIR", "."),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		SQLitePath:    getEnv("SQLITE_PATH", "defectd.db"),
		PostgresURL:   postgresURL(),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Extractor:     strings.ToLower(getEnv("EXTRACTOR", "native")),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.HistogramBins, err = getInt("HIST_BINS", 32); err != nil {
		return nil, err
	}
	if cfg.ForestTrees, err = getInt("FOREST_TREES", 100); err != nil {
		return nil, err
	}
	seed, err := getInt("FOREST_SEED", 42)
	if err != nil {
		return nil, err
	}
	if seed < 0 {
		return nil, fmt.Errorf("FOREST_SEED must not be negative, got %d", seed)
	}
	cfg.ForestSeed = uint64(seed)

	if cfg.LogLevel, err = ParseLogLevel(getEnv("LOG_LEVEL", "warn")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые могли быть переопределены флагами.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.HistogramBins < 1 || c.HistogramBins > 256 {
		return fmt.Errorf("HIST_BINS must be in [1, 256], got %d", c.HistogramBins)
	}
	if c.ForestTrees < 1 {
		return fmt.Errorf("FOREST_TREES must be positive, got %d", c.ForestTrees)
	}
	return nil
}

// ParseLogLevel разбирает уровень логирования slog.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// postgresURL берёт POSTGRES_URL или собирает строку из POSTGRES_* переменных.
func postgresURL() string {
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		return url
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return "postgres://localhost:5432/defectd"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "defectd"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
