package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Mail       MailConfig
	Cloudinary CloudinaryConfig
	Codeforces CodeforcesConfig
	Auth       AuthConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	TrustedProxies []string // IPs or CIDRs whose X-Forwarded-For is honoured
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// RedisConfig holds cache connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret    string
	Issuer    string
	AccessTTL time.Duration
	OTPTTL    time.Duration
}

// MailConfig holds SMTP settings
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// CloudinaryConfig holds image CDN credentials
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// CodeforcesConfig holds judge API settings
type CodeforcesConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds account policy settings
type AuthConfig struct {
	AllowedEmailDomain string
}

// defaultOrigins are the deployed front-ends plus local development.
var defaultOrigins = []string{
	"https://the-programming-club.vercel.app",
	"https://pclub-au.vercel.app",
	"http://localhost:3000",
	"https://tpcau.vercel.app",
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", defaultOrigins),
			TrustedProxies: getSliceEnv("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "pclub"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
			Issuer:    getEnv("JWT_ISSUER", "pclub-api"),
			AccessTTL: getDurationEnv("JWT_ACCESS_TTL", 7*24*time.Hour),
			OTPTTL:    getDurationEnv("JWT_OTP_TTL", 5*time.Minute),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@pclub.local"),
			FromName: getEnv("SMTP_FROM_NAME", "Programming Club"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
		Codeforces: CodeforcesConfig{
			BaseURL: getEnv("CODEFORCES_BASE_URL", "https://codeforces.com/api"),
			Timeout: getDurationEnv("CODEFORCES_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			AllowedEmailDomain: getEnv("AUTH_EMAIL_DOMAIN", "ahduni.edu.in"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.JWT.OTPTTL <= 0 {
		errs = append(errs, errors.New("JWT_OTP_TTL must be positive"))
	}

	if c.Mail.Port <= 0 {
		errs = append(errs, errors.New("SMTP_PORT must be positive"))
	}
	if c.IsProduction() && c.Mail.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}

	if c.Cloudinary.IsConfigured() {
		if err := c.Cloudinary.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("Cloudinary: %w", err))
		}
	}

	if c.Codeforces.BaseURL == "" {
		errs = append(errs, errors.New("CODEFORCES_BASE_URL is required"))
	}

	if c.Auth.AllowedEmailDomain == "" {
		errs = append(errs, errors.New("AUTH_EMAIL_DOMAIN is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as a
// single-host prefix.
func (c ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", raw)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IsConfigured returns true if any Cloudinary field is set
func (c CloudinaryConfig) IsConfigured() bool {
	return c.CloudName != "" || c.APIKey != "" || c.APISecret != ""
}

// Validate checks that all required Cloudinary fields are present
func (c CloudinaryConfig) Validate() error {
	var missing []string
	if c.CloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if c.APIKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if c.APISecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
