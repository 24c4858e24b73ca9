package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores database connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores intake consumer settings. Empty brokers disable the worker.
type Kafka struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Identity stores identity gateway settings.
type Identity struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimit stores claim endpoint rate limiting settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Dispatch stores coordinator tuning knobs.
type Dispatch struct {
	MaxPrepTimeMinutes    int
	ConflictRetryAttempts int
	MaxClaimDistanceKm    float64
	SubscriberBuffer      int
}

// Pprof stores the profiling sidecar settings. Empty Addr disables it.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Config stores dispatch-console service settings.
type Config struct {
	Port      int
	Pprof     Pprof
	DB        DB
	Kafka     Kafka
	Identity  Identity
	Dispatch  Dispatch
	RateLimit RateLimit
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DB:        DefaultDB(),
		Kafka:     DefaultKafka(),
		Identity:  DefaultIdentity(),
		Dispatch:  DefaultDispatch(),
		RateLimit: DefaultRateLimit(),
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	envString(&cfg.DB.Host, "POSTGRES_HOST")
	envString(&cfg.DB.Port, "POSTGRES_PORT")
	envString(&cfg.DB.User, "POSTGRES_USER")
	envString(&cfg.DB.Pass, "POSTGRES_PASSWORD")
	envString(&cfg.DB.Name, "POSTGRES_DB")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	envString(&cfg.Kafka.Topic, "KAFKA_ORDERS_TOPIC")
	envString(&cfg.Kafka.GroupID, "KAFKA_GROUP_ID")

	envString(&cfg.Identity.BaseURL, "IDENTITY_BASE_URL")

	envString(&cfg.Pprof.Addr, "PPROF_ADDR")
	envString(&cfg.Pprof.User, "PPROF_USER")
	envString(&cfg.Pprof.Pass, "PPROF_PASS")

	envInt(&cfg.Dispatch.MaxPrepTimeMinutes, "DISPATCH_MAX_PREP_MINUTES")
	envInt(&cfg.Dispatch.ConflictRetryAttempts, "DISPATCH_CONFLICT_RETRIES")
	envFloat(&cfg.Dispatch.MaxClaimDistanceKm, "DISPATCH_MAX_CLAIM_DISTANCE_KM")
	envInt(&cfg.Dispatch.SubscriberBuffer, "DISPATCH_SUBSCRIBER_BUFFER")

	envBool(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	envFloat(&cfg.RateLimit.Rate, "RATE_LIMIT_RATE")
	envInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST")

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Dispatch.MaxPrepTimeMinutes <= 0 {
		return nil, fmt.Errorf("invalid max prep time: %d", cfg.Dispatch.MaxPrepTimeMinutes)
	}
	if cfg.Dispatch.ConflictRetryAttempts <= 0 {
		return nil, fmt.Errorf("invalid conflict retry attempts: %d", cfg.Dispatch.ConflictRetryAttempts)
	}
	return cfg, nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
