// Package config loads service configuration from the environment plus the
// departments catalog from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Departments DepartmentsConfig
	PurgeEvery  time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int
	AllowedOrigins string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RabbitMQConfig holds the broker URL. An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL string
}

// DepartmentsConfig is the catalog of departments served to clients. The
// queue engine itself does not enforce membership; new departments can be
// added by editing the file.
type DepartmentsConfig struct {
	Departments []string `yaml:"departments"`
}

// Load reads configuration from environment variables, applying the same
// defaults used in local development.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		PurgeEvery: getEnvDuration("QUEUE_PURGE_INTERVAL", time.Hour),
	}

	if cfg.Database.User == "" || cfg.Database.Name == "" {
		return nil, fmt.Errorf("missing required database environment variables (DB_USER, DB_NAME)")
	}

	deptFile := getEnv("DEPARTMENTS_FILE", "config/departments.yaml")
	depts, err := LoadDepartments(deptFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load departments catalog: %w", err)
	}
	cfg.Departments = depts

	return cfg, nil
}

// LoadDepartments reads the departments catalog from a YAML file. A missing
// file falls back to the built-in default set.
func LoadDepartments(path string) (DepartmentsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDepartments(), nil
		}
		return DepartmentsConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg DepartmentsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DepartmentsConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(cfg.Departments) == 0 {
		return DefaultDepartments(), nil
	}
	return cfg, nil
}

// DefaultDepartments returns the standard hospital department set.
func DefaultDepartments() DepartmentsConfig {
	return DepartmentsConfig{Departments: []string{
		"Cardiology",
		"Neurology",
		"Orthopedics",
		"General",
		"Pediatrics",
		"Emergency",
	}}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
