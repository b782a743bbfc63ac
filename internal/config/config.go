package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	CORS          CORSConfig          `yaml:"cors"`
	Auth          AuthConfig          `yaml:"auth"`
	FileStorage   FileStorageConfig   `yaml:"file_storage"`
	Communication CommunicationConfig `yaml:"communication"`
	Cache         CacheConfig         `yaml:"cache"`
	Upload        UploadConfig        `yaml:"upload"`
	TempFolder    TempFolderConfig    `yaml:"temp_folder"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Database flavors
const (
	FlavorPostgres = "postgres"
	FlavorSQLite   = "sqlite"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Flavor          string        `yaml:"flavor"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SQLitePath      string        `yaml:"sqlite_path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// Auth modes
const (
	AuthModeNone   = "none"
	AuthModeJWT    = "jwt"
	AuthModeAPIKey = "api_key"
	AuthModeHybrid = "hybrid"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Mode         string        `yaml:"mode"` // "none", "jwt", "api_key", "hybrid"
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	APIKeyHashes []string      `yaml:"api_key_hashes"`
}

// File storage providers
const (
	StorageProviderS3     = "AWS-S3"
	StorageProviderCustom = "Custom"
)

// FileStorageConfig selects and configures the file storage provider
type FileStorageConfig struct {
	Provider string   `yaml:"provider"` // "AWS-S3", "Custom"
	S3       S3Config `yaml:"s3"`
	// Root directory of the Custom provider
	CustomRoot string `yaml:"custom_root"`
}

// S3Config holds AWS S3 settings
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// CommunicationConfig selects the email and SMS providers
type CommunicationConfig struct {
	EmailProvider string     `yaml:"email_provider"` // "SMTP", "Log"
	SMTP          SMTPConfig `yaml:"smtp"`
	SMSProvider   string     `yaml:"sms_provider"` // "Webhook", "Log"
	SMSWebhookURL string     `yaml:"sms_webhook_url"`
	SMSToken      string     `yaml:"sms_token"`
}

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// CacheConfig holds node path cache settings
type CacheConfig struct {
	Provider      string        `yaml:"provider"` // "Redis", "Memory", "" (disabled)
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// MaxBytes returns the upload limit in bytes
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxSizeMB << 20
}

// TempFolderConfig holds the upload temp folder policy
type TempFolderConfig struct {
	Path            string        `yaml:"path"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxAge          time.Duration `yaml:"max_age"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8081",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Flavor:          FlavorPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "neuronflow",
			Password:        "neuronflow",
			Name:            "neuronflow",
			SQLitePath:      "neuronflow.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		},
		Auth: AuthConfig{
			Mode:     AuthModeNone,
			TokenTTL: 24 * time.Hour,
		},
		FileStorage: FileStorageConfig{
			Provider:   StorageProviderCustom,
			CustomRoot: "./data/files",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Communication: CommunicationConfig{
			EmailProvider: "Log",
			SMTP:          SMTPConfig{Port: 587},
			SMSProvider:   "Log",
		},
		Cache: CacheConfig{
			Provider:  "Memory",
			RedisAddr: "localhost:6379",
			TTL:       5 * time.Minute,
		},
		Upload: UploadConfig{
			MaxSizeMB: 10,
		},
		TempFolder: TempFolderConfig{
			Path:            os.TempDir(),
			CleanupInterval: 10 * time.Minute,
			MaxAge:          time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Database.Flavor = getEnv("DB_FLAVOR", c.Database.Flavor)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SQLitePath = getEnv("DB_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)

	c.CORS.AllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedMethods = getEnvSlice("CORS_ALLOWED_METHODS", c.CORS.AllowedMethods)
	c.CORS.AllowedHeaders = getEnvSlice("CORS_ALLOWED_HEADERS", c.CORS.AllowedHeaders)

	c.Auth.Mode = getEnv("AUTH_MODE", c.Auth.Mode)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnvDuration("JWT_TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.APIKeyHashes = getEnvSlice("AUTH_API_KEY_HASHES", c.Auth.APIKeyHashes)

	c.FileStorage.Provider = getEnv("FILE_STORAGE_PROVIDER", c.FileStorage.Provider)
	c.FileStorage.CustomRoot = getEnv("CUSTOM_STORAGE_ROOT", c.FileStorage.CustomRoot)
	c.FileStorage.S3.Bucket = getEnv("S3_BUCKET", c.FileStorage.S3.Bucket)
	c.FileStorage.S3.Region = getEnv("S3_REGION", c.FileStorage.S3.Region)
	c.FileStorage.S3.Endpoint = getEnv("S3_ENDPOINT", c.FileStorage.S3.Endpoint)
	c.FileStorage.S3.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.FileStorage.S3.AccessKeyID)
	c.FileStorage.S3.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", c.FileStorage.S3.SecretAccessKey)
	c.FileStorage.S3.UsePathStyle = getEnvBool("S3_USE_PATH_STYLE", c.FileStorage.S3.UsePathStyle)

	c.Communication.EmailProvider = getEnv("EMAIL_PROVIDER", c.Communication.EmailProvider)
	c.Communication.SMTP.Host = getEnv("SMTP_HOST", c.Communication.SMTP.Host)
	c.Communication.SMTP.Port = getEnvInt("SMTP_PORT", c.Communication.SMTP.Port)
	c.Communication.SMTP.Username = getEnv("SMTP_USERNAME", c.Communication.SMTP.Username)
	c.Communication.SMTP.Password = getEnv("SMTP_PASSWORD", c.Communication.SMTP.Password)
	c.Communication.SMTP.From = getEnv("SMTP_FROM", c.Communication.SMTP.From)
	c.Communication.SMSProvider = getEnv("SMS_PROVIDER", c.Communication.SMSProvider)
	c.Communication.SMSWebhookURL = getEnv("SMS_WEBHOOK_URL", c.Communication.SMSWebhookURL)
	c.Communication.SMSToken = getEnv("SMS_WEBHOOK_TOKEN", c.Communication.SMSToken)

	c.Cache.Provider = getEnv("CACHE_PROVIDER", c.Cache.Provider)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getEnvInt("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)

	c.Upload.MaxSizeMB = int64(getEnvInt("UPLOAD_MAX_SIZE_MB", int(c.Upload.MaxSizeMB)))

	c.TempFolder.Path = getEnv("TEMP_FOLDER_PATH", c.TempFolder.Path)
	c.TempFolder.CleanupInterval = getEnvDuration("TEMP_FOLDER_CLEANUP_INTERVAL", c.TempFolder.CleanupInterval)
	c.TempFolder.MaxAge = getEnvDuration("TEMP_FOLDER_MAX_AGE", c.TempFolder.MaxAge)

	c.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Flavor {
	case FlavorPostgres, FlavorSQLite:
	default:
		return fmt.Errorf("unknown database flavor %q", c.Database.Flavor)
	}

	switch c.Auth.Mode {
	case AuthModeNone, AuthModeAPIKey:
	case AuthModeJWT, AuthModeHybrid:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for auth mode %q", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}

	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate limit requests must not be negative")
	}
	return nil
}

// Redacted returns a copy with secrets masked, for printing
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "******"
	}
	out.Database.Password = mask(c.Database.Password)
	out.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	if len(c.Auth.APIKeyHashes) > 0 {
		out.Auth.APIKeyHashes = []string{fmt.Sprintf("%d hashes", len(c.Auth.APIKeyHashes))}
	}
	out.FileStorage.S3.SecretAccessKey = mask(c.FileStorage.S3.SecretAccessKey)
	out.Communication.SMTP.Password = mask(c.Communication.SMTP.Password)
	out.Communication.SMSToken = mask(c.Communication.SMSToken)
	out.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	return &out
}

// YAML renders the configuration as YAML
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// DSN returns the database connection string for the configured flavor
func (c *DatabaseConfig) DSN() string {
	if c.Flavor == FlavorSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
