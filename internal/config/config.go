package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"auction-lifecycle/utils"

	"github.com/pelletier/go-toml/v2"
)

// DefaultJWTSecret is the placeholder signing secret. Deployments must replace it.
const DefaultJWTSecret = "change-me"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Auction  AuctionConfig  `toml:"auction"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int `toml:"port"`
}

// DatabaseConfig holds the database configuration. Driver is "memory" or "postgres".
type DatabaseConfig struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret     string   `toml:"jwt_secret"`
	TokenTTL      Duration `toml:"token_ttl"`
	AdminEmail    string   `toml:"admin_email"`
	AdminPassword string   `toml:"admin_password"`
	// PaymentKey is the shared credential the payment collaborator presents to
	// consume authorizations. Empty disables the consume endpoint.
	PaymentKey string `toml:"payment_key"`
}

// AuctionConfig bounds backend calls made by the auction service
type AuctionConfig struct {
	BackendTimeout     Duration `toml:"backend_timeout"`
	MaxConflictRetries int      `toml:"max_conflict_retries"`
}

// Duration decodes TOML strings such as "1500ms" or "24h"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level string `toml:"level"`
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver:   "memory",
			Host:     "localhost",
			Port:     5432,
			Username: "postgres",
			Password: "password",
			DBName:   "lelang",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
			TokenTTL:  Duration{24 * time.Hour},
		},
		Auction: AuctionConfig{
			BackendTimeout:     Duration{2 * time.Second},
			MaxConflictRetries: 3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig loads defaults, then the TOML file named by CONFIG_FILE (if any),
// then environment variables. Malformed numeric or duration variables are errors.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.warnInsecure()
	return cfg, nil
}

// UsesDefaultSecret reports whether tokens would be signed with DefaultJWTSecret
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

func (c *Config) warnInsecure() {
	if c.UsesDefaultSecret() {
		utils.Warn("config: using the built-in jwt secret, set JWT_SECRET or auth.jwt_secret", nil)
	}
	if c.Auth.PaymentKey == "" {
		utils.Warn("config: no payment key set, payment consumption is disabled", map[string]any{
			"env": "PAYMENT_API_KEY",
		})
	}
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	envInt := func(key string, dst *int) {
		v, err := getEnvAsInt(key, *dst)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	envDuration := func(key string, dst *time.Duration) {
		v, err := getEnvAsDuration(key, *dst)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}

	envInt("SERVER_PORT", &cfg.Server.Port)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	envInt("DB_PORT", &cfg.Database.Port)
	cfg.Database.Username = getEnv("DB_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	envDuration("TOKEN_TTL", &cfg.Auth.TokenTTL.Duration)
	cfg.Auth.AdminEmail = getEnv("ADMIN_EMAIL", cfg.Auth.AdminEmail)
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.Auth.AdminPassword)
	cfg.Auth.PaymentKey = getEnv("PAYMENT_API_KEY", cfg.Auth.PaymentKey)

	envDuration("BACKEND_TIMEOUT", &cfg.Auction.BackendTimeout.Duration)
	envInt("MAX_CONFLICT_RETRIES", &cfg.Auction.MaxConflictRetries)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	return errors.Join(errs...)
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: jwt secret must not be empty")
	}
	if c.Auction.BackendTimeout.Duration <= 0 {
		return fmt.Errorf("config: backend timeout must be positive")
	}
	if c.Auction.MaxConflictRetries < 1 {
		return fmt.Errorf("config: max conflict retries must be at least 1")
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns defaultValue when key is unset or empty
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration", key, valueStr)
	}
	return value, nil
}
