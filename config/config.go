// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BrokerRedis = "redis"
	BrokerKafka = "kafka"
	BrokerLocal = "local"
)

// Config holds every setting the chat server reads at startup.
type Config struct {
	Port    string `env:"PORT"     envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBHost    string `env:"DB_HOST"    envDefault:"localhost"`
	DBUser    string `env:"DB_USER"    envDefault:"postgres"`
	DBPass    string `env:"DB_PASS"    envDefault:"postgres"`
	DBName    string `env:"DB_NAME"    envDefault:"chatapp"`
	DBPort    string `env:"DB_PORT"    envDefault:"5432"`
	DBSSLMode string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret string `env:"JWT_SECRET"`

	// Empty RedisURL runs without a cache, with in-process fan-out and a
	// ticker-driven invite sweep.
	RedisURL     string   `env:"REDIS_URL"`
	Broker       string   `env:"BROKER"        envDefault:"redis"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"chat-events"`

	InviteTTL     time.Duration `env:"INVITE_TTL"     envDefault:"168h"`
	PresenceTTL   time.Duration `env:"PRESENCE_TTL"   envDefault:"24h"`
	UnreadTTL     time.Duration `env:"UNREAD_TTL"     envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return Parse()
}

// Parse reads the current environment into a Config and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Broker {
	case BrokerRedis, BrokerKafka, BrokerLocal:
	default:
		return fmt.Errorf("unknown BROKER %q", c.Broker)
	}
	if c.Broker == BrokerKafka && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when BROKER=kafka")
	}
	if c.InviteTTL <= 0 || c.PresenceTTL <= 0 || c.UnreadTTL <= 0 || c.SweepInterval <= 0 {
		return errors.New("ttl and interval settings must be positive")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode)
}

// OriginAllowed reports whether a browser origin may open a websocket.
func (c Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// OriginListed reports whether origin is named explicitly in ALLOWED_ORIGINS.
// A "*" entry never lists an origin.
func (c Config) OriginListed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed != "*" && strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
