package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	TimeClock TimeClockConfig
	Payroll   PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds token verification settings. Tokens are issued by the
// auth service; this service only verifies them.
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	Leeway           time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Version        string
	AllowedOrigins []string
}

// TimeClockConfig holds clock-in/out and geofence settings
type TimeClockConfig struct {
	DefaultRadiusMeters float64
	LocationTimeout     time.Duration
	StaleSessionAfter   time.Duration
	SweepInterval       time.Duration
}

// PayrollConfig holds the default overtime rule. Shops may override it.
type PayrollConfig struct {
	OvertimeThresholdHours float64
	OvertimeMultiplier     float64
	Concurrency            int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "shoptrack"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Version:        getEnv("APP_VERSION", "v1.0.0"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	jwtLeeway, err := time.ParseDuration(getEnv("JWT_LEEWAY", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_LEEWAY: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		Leeway:           jwtLeeway,
	}

	// Time clock configuration
	radius, err := strconv.ParseFloat(getEnv("TIMECLOCK_GEOFENCE_RADIUS_METERS", "30.48"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMECLOCK_GEOFENCE_RADIUS_METERS: %w", err)
	}
	locationTimeout, err := time.ParseDuration(getEnv("TIMECLOCK_LOCATION_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMECLOCK_LOCATION_TIMEOUT: %w", err)
	}
	staleHours, err := strconv.Atoi(getEnv("TIMECLOCK_STALE_SESSION_HOURS", "16"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMECLOCK_STALE_SESSION_HOURS: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("TIMECLOCK_SWEEP_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMECLOCK_SWEEP_INTERVAL: %w", err)
	}

	config.TimeClock = TimeClockConfig{
		DefaultRadiusMeters: radius,
		LocationTimeout:     locationTimeout,
		StaleSessionAfter:   time.Duration(staleHours) * time.Hour,
		SweepInterval:       sweepInterval,
	}

	// Payroll configuration
	threshold, err := strconv.ParseFloat(getEnv("PAYROLL_OVERTIME_THRESHOLD_HOURS", "40"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_OVERTIME_THRESHOLD_HOURS: %w", err)
	}
	multiplier, err := strconv.ParseFloat(getEnv("PAYROLL_OVERTIME_MULTIPLIER", "1.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_OVERTIME_MULTIPLIER: %w", err)
	}
	concurrency, err := strconv.Atoi(getEnv("PAYROLL_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CONCURRENCY: %w", err)
	}

	config.Payroll = PayrollConfig{
		OvertimeThresholdHours: threshold,
		OvertimeMultiplier:     multiplier,
		Concurrency:            concurrency,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.TimeClock.DefaultRadiusMeters <= 0 {
		return fmt.Errorf("TIMECLOCK_GEOFENCE_RADIUS_METERS must be positive")
	}
	if c.TimeClock.LocationTimeout <= 0 {
		return fmt.Errorf("TIMECLOCK_LOCATION_TIMEOUT must be positive")
	}
	if c.TimeClock.StaleSessionAfter <= 0 {
		return fmt.Errorf("TIMECLOCK_STALE_SESSION_HOURS must be positive")
	}
	if c.TimeClock.SweepInterval <= 0 {
		return fmt.Errorf("TIMECLOCK_SWEEP_INTERVAL must be positive")
	}
	if c.Payroll.OvertimeThresholdHours <= 0 {
		return fmt.Errorf("PAYROLL_OVERTIME_THRESHOLD_HOURS must be positive")
	}
	if c.Payroll.OvertimeMultiplier < 1 {
		return fmt.Errorf("PAYROLL_OVERTIME_MULTIPLIER must be at least 1")
	}
	if c.Payroll.Concurrency <= 0 {
		return fmt.Errorf("PAYROLL_CONCURRENCY must be positive")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
