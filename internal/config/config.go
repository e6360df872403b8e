package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Referral ReferralConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string

	// Application change feed.
	Stream        string
	ConsumerGroup string
	ConsumerName  string
}

type AuthConfig struct {
	Secret string
}

type ReferralConfig struct {
	BonusAmount float64
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST", "localhost"),
		DBPort:     opt("DB_PORT", "5432"),
		DBName:     opt("DB_NAME", ""),
		DBUser:     opt("DB_USER", ""),
		DBPassword: opt("DB_PASSWORD", ""),
		DBSSLMode:  opt("DB_SSL_MODE", "disable"),

		MigrationsDir: opt("MIGRATIONS_DIR", "migrations"),
	}

	cfg.Redis = RedisConfig{
		Host:          opt("REDIS_HOST", "localhost"),
		Port:          opt("REDIS_PORT", "6379"),
		Password:      opt("REDIS_PASSWORD", ""),
		Stream:        opt("CHANGE_FEED_STREAM", "applications:events"),
		ConsumerGroup: opt("CHANGE_FEED_GROUP", "bonus-processor"),
		ConsumerName:  opt("CHANGE_FEED_CONSUMER", defaultConsumerName()),
	}

	cfg.Auth = AuthConfig{
		Secret: req("AUTH_SECRET"),
	}

	bonus, err := parseBonusAmount(opt("REFERRAL_BONUS_AMOUNT", "50"))
	if err != nil {
		return Config{}, err
	}
	cfg.Referral = ReferralConfig{BonusAmount: bonus}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return "bonus-worker"
	}
	return host
}

func parseBonusAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid REFERRAL_BONUS_AMOUNT: %q", raw)
	}
	return v, nil
}
