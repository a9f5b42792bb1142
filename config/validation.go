package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one pass.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Fields returns the names of the invalid fields.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

const devJWTSecret = "dev-only-jwt-secret-change-me"

var llmProviders = map[string]bool{"deepseek": true, "gemini": true, "none": true}

// ValidateConfig checks if the configuration meets the requirements for its environment.
// Outside production and CI a missing JWT secret is replaced by a development value.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.ServerPort == "" {
		add("SERVER_PORT", "is required")
	}
	if cfg.DBHost == "" || cfg.DBName == "" {
		add("DB_HOST", "database host and name are required")
	}

	if cfg.Env.Strict() {
		if cfg.DBPassword == "" {
			add("DB_PASSWORD", "is required in "+string(cfg.Env))
		}
		if len(cfg.JWTSecret) < 32 {
			add("JWT_SECRET", "must be at least 32 characters in "+string(cfg.Env))
		}
		if cfg.RedisHost == "" && cfg.RedisURL == "" {
			add("REDIS_HOST", "redis is required in "+string(cfg.Env))
		}
	} else if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	if !llmProviders[cfg.LLMProvider] {
		add("LLM_PROVIDER", fmt.Sprintf("unknown provider %q", cfg.LLMProvider))
	}
	if cfg.LLMProvider == "gemini" && cfg.GeminiAPIKey == "" {
		add("GEMINI_API_KEY", "is required when LLM_PROVIDER=gemini")
	}

	if cfg.DistanceLimitKm <= 0 {
		add("DISTANCE_LIMIT_KM", "must be positive")
	}
	if cfg.DefaultLat < -90 || cfg.DefaultLat > 90 {
		add("DEFAULT_LAT", "out of range")
	}
	if cfg.DefaultLon < -180 || cfg.DefaultLon > 180 {
		add("DEFAULT_LON", "out of range")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		add("TIMEZONE", err.Error())
	}
	if cfg.SchedulerTick <= 0 {
		add("SCHEDULER_TICK", "must be positive")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
