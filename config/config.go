package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Server
	Port string
	Host string

	// Auth
	JWTSecret string

	// RabbitMQ (empty URL disables publishing)
	AMQPURL         string
	AMQPExchange    string
	AMQPReportKey   string
	AMQPAnnounceKey string

	// Dashboard aggregator
	APIBaseURL   string
	APIToken     string
	PollInterval time.Duration
	HTTPTimeout  time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		DBUser:          getEnv("DB_USER", "server"),
		DBPassword:      getEnv("DB_PASSWORD", "secret_app"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBName:          getEnv("DB_NAME", "citywatch"),
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "0.0.0.0"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "citywatch"),
		AMQPReportKey:   getEnv("AMQP_REPORT_ROUTING_KEY", "reports.created"),
		AMQPAnnounceKey: getEnv("AMQP_ANNOUNCEMENT_ROUTING_KEY", "announcements"),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:        getEnv("API_TOKEN", ""),
		PollInterval:    getEnvDuration("POLL_INTERVAL_SECONDS", 5*time.Second),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT_SECONDS", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return time.Duration(n) * time.Second
}
