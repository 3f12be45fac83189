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

// DefaultDecisionMaxRetries applies when DECISION_MAX_RETRIES is unset. An explicit 0
// disables retrying.
const DefaultDecisionMaxRetries = 3

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// Config is the process configuration read from the environment.
type Config struct {
	Storage            string
	HTTPAddr           string
	JWTSecret          string
	Postgres           PostgresConfig
	RedisAddr          string
	RedisChannel       string
	RulesFile          string
	VotingWindow       time.Duration
	DecisionMaxRetries uint64
	AllowSelfVote      bool
}

// LoadEnv reads an optional .env file into the process environment.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func FromEnv() (*Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Storage:      strings.ToLower(valueOr(getenv("STORAGE"), StoragePostgres)),
		HTTPAddr:     valueOr(getenv("HTTP_ADDR"), "0.0.0.0:8080"),
		JWTSecret:    getenv("JWT_SECRET"),
		RedisAddr:    getenv("REDIS_ADDR"),
		RedisChannel: getenv("REDIS_CHANNEL"),
		RulesFile:    getenv("RULES_FILE"),
		Postgres: PostgresConfig{
			Host:     valueOr(getenv("POSTGRES_HOST"), "localhost"),
			Port:     valueOr(getenv("POSTGRES_PORT"), "5432"),
			User:     getenv("POSTGRES_USER"),
			Password: getenv("POSTGRES_PASSWORD"),
			DB:       getenv("POSTGRES_DB"),
		},
		DecisionMaxRetries: DefaultDecisionMaxRetries,
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	if raw := getenv("VOTING_WINDOW"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid VOTING_WINDOW %q", raw)
		}
		cfg.VotingWindow = d
	}

	if raw := getenv("DECISION_MAX_RETRIES"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DECISION_MAX_RETRIES %q: %w", raw, err)
		}
		cfg.DecisionMaxRetries = n
	}

	if raw := getenv("ALLOW_SELF_VOTE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOW_SELF_VOTE %q: %w", raw, err)
		}
		cfg.AllowSelfVote = v
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
