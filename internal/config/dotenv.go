package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Env                      string
	JWTSecret                string
	TokenTTL                 time.Duration
	BcryptCost               int
	FrontendOrigin           string
	SweepSchedule            string
	AuthRequestsPerMinute    int
	VoteRequestsPerMinute    int
	GeneralRequestsPerMinute int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Env:                      "local",
		TokenTTL:                 168 * time.Hour,
		BcryptCost:               12,
		FrontendOrigin:           "http://localhost:3000",
		SweepSchedule:            "*/15 * * * *",
		AuthRequestsPerMinute:    10,
		VoteRequestsPerMinute:    6,
		GeneralRequestsPerMinute: 120,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("ENV"); raw != "" {
		cfg.Env = raw
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.TokenTTL = value
		}
	}
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.BcryptCost = value
		}
	}
	if raw := os.Getenv("FRONTEND_ORIGIN"); raw != "" {
		cfg.FrontendOrigin = raw
	}
	if raw := os.Getenv("SWEEP_SCHEDULE"); raw != "" {
		cfg.SweepSchedule = raw
	}
	if raw := os.Getenv("AUTH_REQUESTS_PER_MINUTE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.AuthRequestsPerMinute = value
		}
	}
	if raw := os.Getenv("VOTE_REQUESTS_PER_MINUTE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.VoteRequestsPerMinute = value
		}
	}
	if raw := os.Getenv("GENERAL_REQUESTS_PER_MINUTE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.GeneralRequestsPerMinute = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}

// Validate rejects configurations that must never reach a running server.
// There is deliberately no fallback signing secret.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	return nil
}
