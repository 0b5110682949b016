package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config is the whole app configuration, read from the environment.
type Config struct {
	Port      string // listen port (8080)
	GoEnv     string // dev/prod
	APIPrefix string // mount point inside the LMS URL space

	DBDriver         string // postgres/mysql
	DatabaseURL      string // wins over the DB_* parts when set
	DBHost           string
	DBPort           int
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBSimpleProtocol bool // postgres behind pgbouncer
	AutoMigrate      bool

	PaymentAPIToken    string // empty = auth off (dev only)
	PaymentTokenHeader string

	EnrollmentMode  string
	PendingOrderTTL time.Duration
	ReaperInterval  time.Duration // 0 = no in-process reaper

	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

// LoadDotenv reads .env style files into the environment. Missing files are fine.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:      getenv("PORT", "8080"),
		GoEnv:     getenv("GO_ENV", EnvDev),
		APIPrefix: getenv("API_PREFIX", "/api/cusc-edx-api"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getenv("DB_NAME", "edxapp"),
		DBSSLMode:   getenv("DB_SSLMODE", "disable"),

		PaymentAPIToken:    os.Getenv("CUSC_PAYMENT_API_TOKEN"),
		PaymentTokenHeader: getenv("PAYMENT_TOKEN_HEADER", "X-CUSC-PAYMENT-TOKEN"),

		EnrollmentMode: getenv("ENROLLMENT_MODE", "verified"),
	}

	var err error

	switch cfg.DBDriver {
	case DriverPostgres:
		cfg.DBPort, err = atoiDefault("DB_PORT", 5432)
	case DriverMySQL:
		cfg.DBPort, err = atoiDefault("DB_PORT", 3306)
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMySQL, cfg.DBDriver)
	}
	if err != nil {
		return Config{}, err
	}

	if cfg.DBSimpleProtocol, err = boolDefault("DB_SIMPLE_PROTOCOL", false); err != nil {
		return Config{}, err
	}
	if cfg.AutoMigrate, err = boolDefault("AUTO_MIGRATE", false); err != nil {
		return Config{}, err
	}

	ttlSeconds, err := atoiDefault("ORDER_PENDING_TTL_SECONDS", 24*60*60)
	if err != nil {
		return Config{}, err
	}
	if ttlSeconds < 0 {
		return Config{}, fmt.Errorf("ORDER_PENDING_TTL_SECONDS must not be negative")
	}
	cfg.PendingOrderTTL = time.Duration(ttlSeconds) * time.Second

	if cfg.ReaperInterval, err = durationDefault("REAPER_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationDefault("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	//sanity checks
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be number: %w", err)
	}
	if cfg.GoEnv != EnvDev && cfg.GoEnv != EnvProd {
		return Config{}, fmt.Errorf("GO_ENV must be %q or %q", EnvDev, EnvProd)
	}
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		return Config{}, fmt.Errorf("API_PREFIX must start with /")
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if strings.TrimSpace(cfg.PaymentTokenHeader) == "" {
		return Config{}, fmt.Errorf("PAYMENT_TOKEN_HEADER must not be empty")
	}
	if cfg.GoEnv == EnvProd && cfg.PaymentAPIToken == "" {
		return Config{}, fmt.Errorf("CUSC_PAYMENT_API_TOKEN is required when GO_ENV=prod")
	}
	if strings.TrimSpace(cfg.EnrollmentMode) == "" {
		return Config{}, fmt.Errorf("ENROLLMENT_MODE must not be empty")
	}

	return cfg, nil
}

// AuthEnabled is false only in dev setups without a token.
func (c Config) AuthEnabled() bool {
	return c.PaymentAPIToken != ""
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true/false: %w", key, err)
	}
	return b, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 5m): %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
