package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Rabbit   RabbitConfig
	HTTP     HTTPConfig
	Limits   LimitsConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RabbitConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	Queue    string
	// DLX and DLQ name the dead-letter exchange and queue the work queue is
	// bound to; messages nacked without requeue end up there.
	DLX      string
	DLQ      string
	Prefetch int
	Workers  int
}

type HTTPConfig struct {
	Port int
}

type LimitsConfig struct {
	DailyHourCap float64
	MinYear      int
	MaxYear      int
}

type CacheConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	rmqPort, _ := strconv.Atoi(getEnv("RABBITMQ_PORT", "5672"))
	prefetch, _ := strconv.Atoi(getEnv("RABBITMQ_PREFETCH", "10"))
	workers, _ := strconv.Atoi(getEnv("RABBITMQ_WORKERS", "4"))
	httpPort, _ := strconv.Atoi(getEnv("HTTP_PORT", "8080"))
	dailyCap, _ := strconv.ParseFloat(getEnv("DAILY_HOUR_CAP", "8.0"), 64)
	minYear, _ := strconv.Atoi(getEnv("MIN_YEAR", "2025"))
	maxYear, _ := strconv.Atoi(getEnv("MAX_YEAR", "2100"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "60"))
	cacheSweep, _ := strconv.Atoi(getEnv("CACHE_SWEEP_SECONDS", "120"))

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "trainer_workload"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Rabbit: RabbitConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     rmqPort,
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", "/"),
			Queue:    getEnv("RABBITMQ_QUEUE", "trainer_workload"),
			DLX:      getEnv("RABBITMQ_DLX", "trainer_workload.dlx"),
			DLQ:      getEnv("RABBITMQ_DLQ", "trainer_workload.dlq"),
			Prefetch: prefetch,
			Workers:  workers,
		},
		HTTP: HTTPConfig{
			Port: httpPort,
		},
		Limits: LimitsConfig{
			DailyHourCap: dailyCap,
			MinYear:      minYear,
			MaxYear:      maxYear,
		},
		Cache: CacheConfig{
			TTL:           time.Duration(cacheTTL) * time.Second,
			SweepInterval: time.Duration(cacheSweep) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
