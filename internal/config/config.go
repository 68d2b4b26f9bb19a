package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SCHEDULING"

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers      []string
	GroupPrefix  string
	BookingTopic string
	PaymentTopic string
}

// RedisConfig holds the Redis settings shared by the task queue and cache.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Enabled     bool
	ScheduleTTL time.Duration
}

// StripeConfig holds the payment gateway key. An empty key selects the
// manual gateway.
type StripeConfig struct {
	SecretKey string
}

// SupabaseConfig points at the hosted database owning leads and properties.
type SupabaseConfig struct {
	URL           string
	ServiceKey    string
	LeadsTable    string
	PropertyTable string
}

// RateLimitConfig holds the per-IP limiter settings.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ServiceConfig holds all configuration for the scheduling service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	StorageDriver     string
	MigrationsDir     string
	CORSOrigins       []string
	NotifierURL       string
	WorkerConcurrency int
	DBConfig          DatabaseConfig
	JWTConfig         JWTConfig
	KafkaConfig       KafkaConfig
	RedisConfig       RedisConfig
	StripeConfig      StripeConfig
	SupabaseConfig    SupabaseConfig
	RateLimitConfig   RateLimitConfig
}

// IsDevelopment reports whether the service runs in development mode.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from the environment, after loading a .env file
// when one is present. Keys are prefixed with SCHEDULING_.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:              ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv:            v.GetString("APP_ENV"),
		StorageDriver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsDir:     v.GetString("MIGRATIONS_DIR"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		NotifierURL:       v.GetString("NOTIFIER_URL"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		DBConfig: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWTConfig: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:      splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix:  v.GetString("KAFKA_GROUP_PREFIX"),
			BookingTopic: v.GetString("KAFKA_BOOKING_TOPIC"),
			PaymentTopic: v.GetString("KAFKA_PAYMENT_TOPIC"),
		},
		RedisConfig: RedisConfig{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			Enabled:     v.GetBool("REDIS_ENABLED"),
			ScheduleTTL: v.GetDuration("SCHEDULE_CACHE_TTL"),
		},
		StripeConfig: StripeConfig{
			SecretKey: v.GetString("STRIPE_SECRET_KEY"),
		},
		SupabaseConfig: SupabaseConfig{
			URL:           v.GetString("SUPABASE_URL"),
			ServiceKey:    v.GetString("SUPABASE_SERVICE_KEY"),
			LeadsTable:    v.GetString("SUPABASE_LEADS_TABLE"),
			PropertyTable: v.GetString("SUPABASE_PROPERTIES_TABLE"),
		},
		RateLimitConfig: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.StorageDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("%s_JWT_SECRET is required", envPrefix)
	}
	if !c.IsDevelopment() && len(c.JWTConfig.Secret) < 32 {
		return fmt.Errorf("%s_JWT_SECRET must be at least 32 characters outside development", envPrefix)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("%s_WORKER_CONCURRENCY must be positive", envPrefix)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8004")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("WORKER_CONCURRENCY", 4)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scheduling")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "estatehub-")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "booking.events")
	v.SetDefault("KAFKA_PAYMENT_TOPIC", "payment.events")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("SUPABASE_LEADS_TABLE", "leads")
	v.SetDefault("SUPABASE_PROPERTIES_TABLE", "properties")

	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
