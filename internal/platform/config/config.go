package config

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Store    StoreConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Kafka    KafkaConfig
	AI       AIConfig
	Auth     AuthConfig
	Wizard   WizardConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"KYC_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"KYC_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"KYC_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"KYC_LOG_LEVEL" envDefault:"info"`
}

// StoreConfig selects the record store backend and its read cache.
type StoreConfig struct {
	Backend  string        `env:"STORE_BACKEND" envDefault:"memory"`
	CacheTTL time.Duration `env:"STORE_CACHE_TTL" envDefault:"30s"`
	CacheMax int           `env:"STORE_CACHE_SIZE" envDefault:"512"`
}

// RedisConfig configures the Redis record store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"kyc:"`
}

// PostgresConfig configures the Postgres record store.
type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
}

// SQLiteConfig configures the file-backed record store.
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"kyc.db"`
}

// KafkaConfig enables submission lifecycle events. Empty brokers keep events in memory.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_SUBMISSION_TOPIC" envDefault:"kyc.submissions"`
}

// AIConfig configures the face comparison provider. An empty API key selects
// the deterministic stub comparer.
type AIConfig struct {
	APIKey    string        `env:"GEMINI_API_KEY"`
	BaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Model     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	Timeout   time.Duration `env:"GEMINI_TIMEOUT" envDefault:"45s"`
	StubScore float64       `env:"FACEMATCH_STUB_SCORE" envDefault:"0.82"`
}

// AuthConfig configures admin token issuance and the seeded administrator.
type AuthConfig struct {
	JWTSigningKey     string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"kycdesk"`
	TokenTTL          time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"8h"`
	SeedAdminEmail    string        `env:"ADMIN_SEED_EMAIL" envDefault:"admin@example.com"`
	SeedAdminPassword string        `env:"ADMIN_SEED_PASSWORD" envDefault:"password"`
}

// WizardConfig bounds the in-memory wizard session registry.
type WizardConfig struct {
	SessionTTL  time.Duration `env:"WIZARD_SESSION_TTL" envDefault:"1h"`
	MaxSessions int           `env:"WIZARD_MAX_SESSIONS" envDefault:"10000"`
}

// Load reads an optional .env file, then the environment.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
