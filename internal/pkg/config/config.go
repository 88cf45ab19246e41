package config

import (
	"fmt"
	"os"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AmapConfig struct {
	Key     string
	BaseURL string
}

type UpstreamConfig struct {
	PlanBaseURL string // chat backend that serves generated itineraries
	ChatBaseURL string // chat backend message endpoint, proxied by this service
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

type Config struct {
	Repositories RepositoriesConfig
	Amap         AmapConfig
	Upstream     UpstreamConfig
	JWTSecret    string
	ServerPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "voyplan"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       0,
			},
		},
		Amap: AmapConfig{
			Key:     getEnvOrDefault("AMAP_KEY", ""),
			BaseURL: getEnvOrDefault("AMAP_BASE_URL", "https://restapi.amap.com"),
		},
		Upstream: UpstreamConfig{
			PlanBaseURL: getEnvOrDefault("PLAN_BASE_URL", "http://localhost:8000/api"),
			ChatBaseURL: getEnvOrDefault("CHAT_BASE_URL", "http://localhost:8000/api"),
		},
		JWTSecret:  getEnvOrDefault("JWT_SECRET", ""),
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Amap.Key == "" {
		return nil, fmt.Errorf("AMAP_KEY environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
