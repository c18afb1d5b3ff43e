package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenStrategyJWT    = "jwt"
	TokenStrategyPaseto = "paseto"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Upload   UploadConfig
	Email    EmailConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// NodeID seeds the snowflake generator; unique per running instance (0-1023)
	NodeID int64
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	PingTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	TokenStrategy string // jwt or paseto
	SecretKey     string // HMAC secret for JWT
	Algorithm     string // HS256, HS384, HS512
	// PASETO symmetric key (must be 32 bytes for v4.local)
	PasetoKey           []byte
	AccessTokenDuration time.Duration
	// Failed logins allowed per identifier within LockoutWindow
	MaxFailedLogins int
	LockoutWindow   time.Duration
	// Requests allowed per IP and purpose (register, login) within IPWindow
	IPRequestLimit int
	IPWindow       time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type UploadConfig struct {
	MaxFileSize       int64
	AllowedImageTypes []string
	StorageType       string // local or s3
	Dir               string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
}

type LogConfig struct {
	Level string
	Dir   string // optional, enables rotated JSON log files
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8000"),
			Env:             getEnv("APP_ENV", "dev"),
			Version:         getEnv("APP_VERSION", "1.0.0"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "beauty_assistant"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			PingTimeout:  getDurationEnv("DB_PING_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenStrategy:       strings.ToLower(getEnv("AUTH_TOKEN_STRATEGY", TokenStrategyJWT)),
			SecretKey:           getEnv("SECRET_KEY", ""),
			Algorithm:           strings.ToUpper(getEnv("ALGORITHM", "HS256")),
			PasetoKey:           []byte(getEnv("PASETO_KEY", "")),
			AccessTokenDuration: time.Duration(getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			MaxFailedLogins:     getIntEnv("AUTH_MAX_FAILED_LOGINS", 5),
			LockoutWindow:       getDurationEnv("AUTH_LOCKOUT_WINDOW", 15*time.Minute),
			IPRequestLimit:      getIntEnv("AUTH_IP_REQUEST_LIMIT", 20),
			IPWindow:            getDurationEnv("AUTH_IP_WINDOW", 15*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getSliceEnv("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getSliceEnv("ALLOWED_HEADERS", []string{"*"}),
		},
		Upload: UploadConfig{
			MaxFileSize:       int64(getIntEnv("MAX_FILE_SIZE", 10*1024*1024)),
			AllowedImageTypes: getSliceEnv("ALLOWED_IMAGE_TYPES", []string{"image/jpeg", "image/png", "image/jpg"}),
			StorageType:       strings.ToLower(getEnv("STORAGE_TYPE", StorageLocal)),
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			S3Bucket:          getEnv("S3_BUCKET", ""),
			S3Region:          getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        getEnv("S3_ENDPOINT", ""),
			S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromAddress:  getEnv("SMTP_FROM", "no-reply@beauty-assistant.app"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", ""),
			Dir:   getEnv("LOG_DIR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail later at first use.
func (c *Config) Validate() error {
	switch c.Auth.TokenStrategy {
	case TokenStrategyJWT:
		switch c.Auth.Algorithm {
		case "HS256", "HS384", "HS512":
		default:
			return fmt.Errorf("unsupported ALGORITHM %q", c.Auth.Algorithm)
		}
		if c.Auth.SecretKey == "" {
			if !c.Server.IsDevelopment() {
				return fmt.Errorf("SECRET_KEY is required outside dev")
			}
			c.Auth.SecretKey = "dev-secret-change-me"
		}
	case TokenStrategyPaseto:
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_STRATEGY %q", c.Auth.TokenStrategy)
	}

	if c.Server.NodeID < 0 || c.Server.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", c.Server.NodeID)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	switch c.Upload.StorageType {
	case StorageLocal:
	case StorageS3:
		if c.Upload.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Upload.StorageType)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// Enabled reports whether an SMTP relay is configured.
func (c *EmailConfig) Enabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getDurationEnv accepts either a Go duration ("90s", "15m") or a plain number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
