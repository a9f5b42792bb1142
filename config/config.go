package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort         string
	ServerHost         string
	PublicBaseURL      string
	CORSAllowedOrigins []string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// LLM configuration
	LLMProvider    string
	LLMModel       string
	DeepSeekAPIKey string
	DeepSeekAPIURL string
	GeminiAPIKey   string
	EmbeddingModel string

	// Object storage
	S3BucketName string
	AWSRegion    string

	// SMTP
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string

	// Booking and catalog policy
	DistanceLimitKm float64
	DefaultLat      float64
	DefaultLon      float64
	Timezone        string
	SchedulerTick   time.Duration
	MigrationsDir   string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Env: env}

	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(cfg *Config) error {
	cfg.ServerPort = lookupDefault("SERVER_PORT", "8080")
	cfg.ServerHost = lookupDefault("SERVER_HOST", "0.0.0.0")
	cfg.PublicBaseURL = strings.TrimRight(lookupDefault("PUBLIC_BASE_URL", "https://almuerzo.cl"), "/")
	cfg.CORSAllowedOrigins = splitList(lookupDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	cfg.DBHost = lookupDefault("DB_HOST", "localhost")
	cfg.DBPort = lookupDefault("DB_PORT", "5432")
	cfg.DBUser = lookupDefault("DB_USER", "postgres")
	cfg.DBPassword = lookup("DB_PASSWORD")
	cfg.DBName = lookupDefault("DB_NAME", "almuerzo")
	cfg.DBSSLMode = lookupDefault("DB_SSL_MODE", "disable")

	cfg.RedisHost = lookup("REDIS_HOST")
	cfg.RedisPort = lookupDefault("REDIS_PORT", "6379")
	cfg.RedisPassword = lookup("REDIS_PASSWORD")
	cfg.RedisURL = lookup("REDIS_URL")
	redisDB, err := lookupInt("REDIS_DB", 0)
	if err != nil {
		return err
	}
	cfg.RedisDB = redisDB

	cfg.JWTSecret = lookup("JWT_SECRET")

	cfg.LLMProvider = strings.ToLower(lookupDefault("LLM_PROVIDER", "deepseek"))
	cfg.LLMModel = lookup("LLM_MODEL")
	cfg.DeepSeekAPIKey = lookup("DEEPSEEK_API_KEY")
	cfg.DeepSeekAPIURL = lookupDefault("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions")
	cfg.GeminiAPIKey = lookup("GEMINI_API_KEY")
	cfg.EmbeddingModel = lookupDefault("EMBEDDING_MODEL", "gemini-embedding-001")

	cfg.S3BucketName = lookupDefault("S3_BUCKET_NAME", "almuerzo-images")
	cfg.AWSRegion = lookupDefault("AWS_REGION", "sa-east-1")

	cfg.SMTPHost = lookup("SMTP_HOST")
	cfg.SMTPPort = lookup("SMTP_PORT")
	cfg.SMTPUsername = lookup("SMTP_USERNAME")
	cfg.SMTPPassword = lookup("SMTP_PASSWORD")
	cfg.EmailFrom = lookupDefault("EMAIL_FROM", "no-reply@almuerzo.cl")
	cfg.EmailFromName = lookupDefault("EMAIL_FROM_NAME", "almuerzo.cl")

	if cfg.DistanceLimitKm, err = lookupFloat("DISTANCE_LIMIT_KM", 4); err != nil {
		return err
	}
	// Santiago centro
	if cfg.DefaultLat, err = lookupFloat("DEFAULT_LAT", -33.4378); err != nil {
		return err
	}
	if cfg.DefaultLon, err = lookupFloat("DEFAULT_LON", -70.6505); err != nil {
		return err
	}
	cfg.Timezone = lookupDefault("TIMEZONE", "America/Santiago")

	tick := lookupDefault("SCHEDULER_TICK", "1s")
	if cfg.SchedulerTick, err = time.ParseDuration(tick); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TICK %q: %w", tick, err)
	}
	cfg.MigrationsDir = lookupDefault("MIGRATIONS_DIR", "migrations")

	return nil
}

// Location returns the configured display time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// lookup returns the environment variable if set, otherwise the Docker secret
// with the lower-cased name.
func lookup(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return readSecret(strings.ToLower(name))
}

func lookupDefault(name, def string) string {
	if v := lookup(name); v != "" {
		return v
	}
	return def
}

func lookupInt(name string, def int) (int, error) {
	v := lookup(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}

func lookupFloat(name string, def float64) (float64, error) {
	v := lookup(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
