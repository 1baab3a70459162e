package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`

	// Server Configuration
	ServerHost string `mapstructure:"SERVER_HOST"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	// APIKey guards the HTTP API when set; clients send it as X-API-KEY
	APIKey string `mapstructure:"API_KEY"`

	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	LLM      LLMConfig
	OCR      OCRConfig
	Storage  StorageConfig
}

// DatabaseConfig holds relational store settings
type DatabaseConfig struct {
	Driver          string // "postgres" or "sqlite"
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	SQLitePath      string
	LogLevel        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // minutes
	MaxConnIdleTime int // minutes
}

// RedisConfig is used for complaint number reservation
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  int // seconds
	ReadTimeout  int
	WriteTimeout int
	PoolSize     int
	MinIdleConns int
}

// QueueConfig configures the asynq intake queue
type QueueConfig struct {
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	DialTimeout   int
	ReadTimeout   int
	WriteTimeout  int
	Concurrency   int

	// ShutdownTimeout is how long in-flight analyses get to finish, in seconds
	ShutdownTimeout int
}

// LLMConfig configures the Gemini endpoint
type LLMConfig struct {
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
	Timeout         time.Duration
}

// OCRConfig configures the raster OCR fallback
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	Language      string
	DPI           int
	MaxPages      int
	MinTextLength int

	// TextCleaner names the refinery applied to extracted text; "none" disables it
	TextCleaner string
}

// StorageConfig covers temp uploads and the S3 archive
type StorageConfig struct {
	TempDir         string
	MaxFileSizeMB   int64
	RetentionHours  int
	CleanupSchedule string

	S3Enabled   bool
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// Try parent directory
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables only")
		}
	}

	setDefaults()
	viper.AutomaticEnv()

	config := &Config{
		Environment: viper.GetString("ENV"),
		ServerHost:  viper.GetString("SERVER_HOST"),
		ServerPort:  viper.GetString("SERVER_PORT"),
		APIKey:      viper.GetString("API_KEY"),
	}

	config.Database = DatabaseConfig{
		Driver:          viper.GetString("DB_DRIVER"),
		Host:            viper.GetString("DB_HOST"),
		Port:            viper.GetInt("DB_PORT"),
		User:            viper.GetString("DB_USER"),
		Password:        viper.GetString("DB_PASSWORD"),
		Database:        viper.GetString("DB_NAME"),
		SSLMode:         viper.GetString("DB_SSLMODE"),
		SQLitePath:      viper.GetString("DB_SQLITE_PATH"),
		LogLevel:        viper.GetString("DB_LOG_LEVEL"),
		MaxConnections:  viper.GetInt("DB_MAX_CONNECTIONS"),
		MinConnections:  viper.GetInt("DB_MIN_CONNECTIONS"),
		MaxConnLifetime: viper.GetInt("DB_MAX_CONN_LIFETIME_MIN"),
		MaxConnIdleTime: viper.GetInt("DB_MAX_CONN_IDLE_MIN"),
	}

	config.Redis = RedisConfig{
		Enabled:      viper.GetBool("REDIS_ENABLED"),
		Host:         viper.GetString("REDIS_HOST"),
		Port:         viper.GetInt("REDIS_PORT"),
		Password:     viper.GetString("REDIS_PASSWORD"),
		DB:           viper.GetInt("REDIS_DB"),
		DialTimeout:  viper.GetInt("REDIS_DIAL_TIMEOUT"),
		ReadTimeout:  viper.GetInt("REDIS_READ_TIMEOUT"),
		WriteTimeout: viper.GetInt("REDIS_WRITE_TIMEOUT"),
		PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
		MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
	}

	config.Queue = QueueConfig{
		RedisHost:       config.Redis.Host,
		RedisPort:       config.Redis.Port,
		RedisPassword:   config.Redis.Password,
		RedisDB:         viper.GetInt("QUEUE_REDIS_DB"),
		DialTimeout:     config.Redis.DialTimeout,
		ReadTimeout:     config.Redis.ReadTimeout,
		WriteTimeout:    config.Redis.WriteTimeout,
		Concurrency:     viper.GetInt("WORKER_CONCURRENCY"),
		ShutdownTimeout: viper.GetInt("WORKER_SHUTDOWN_TIMEOUT"),
	}

	config.LLM = LLMConfig{
		GeminiAPIKey:    viper.GetString("GEMINI_API_KEY"),
		GeminiModel:     viper.GetString("GEMINI_MODEL"),
		GeminiBaseURL:   viper.GetString("GEMINI_BASE_URL"),
		Temperature:     viper.GetFloat64("LLM_TEMPERATURE"),
		MaxOutputTokens: viper.GetInt("LLM_MAX_OUTPUT_TOKENS"),
		TopP:            viper.GetFloat64("LLM_TOP_P"),
		Timeout:         viper.GetDuration("LLM_TIMEOUT"),
	}

	config.OCR = OCRConfig{
		Pdftoppm:      viper.GetString("OCR_PDFTOPPM"),
		Tesseract:     viper.GetString("OCR_TESSERACT"),
		Language:      viper.GetString("OCR_LANGUAGE"),
		DPI:           viper.GetInt("OCR_DPI"),
		MaxPages:      viper.GetInt("OCR_MAX_PAGES"),
		MinTextLength: viper.GetInt("EXTRACT_MIN_TEXT_LENGTH"),
		TextCleaner:   viper.GetString("TEXT_CLEANER"),
	}

	config.Storage = StorageConfig{
		TempDir:         viper.GetString("TEMP_DIR"),
		MaxFileSizeMB:   viper.GetInt64("MAX_FILE_SIZE_MB"),
		RetentionHours:  viper.GetInt("UPLOAD_RETENTION_HOURS"),
		CleanupSchedule: viper.GetString("UPLOAD_CLEANUP_SCHEDULE"),
		S3Enabled:       viper.GetBool("S3_ENABLED"),
		S3Endpoint:      viper.GetString("S3_ENDPOINT"),
		S3Region:        viper.GetString("S3_REGION"),
		S3Bucket:        viper.GetString("S3_BUCKET"),
		S3AccessKey:     viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:     viper.GetString("S3_SECRET_KEY"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8000")

	// Database defaults
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "legal_complaints")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SQLITE_PATH", "complaints.db")
	viper.SetDefault("DB_LOG_LEVEL", "silent")
	viper.SetDefault("DB_MAX_CONNECTIONS", 10)
	viper.SetDefault("DB_MIN_CONNECTIONS", 2)
	viper.SetDefault("DB_MAX_CONN_LIFETIME_MIN", 30)
	viper.SetDefault("DB_MAX_CONN_IDLE_MIN", 5)

	// Redis defaults
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	viper.SetDefault("REDIS_READ_TIMEOUT", 3)
	viper.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 1)
	viper.SetDefault("QUEUE_REDIS_DB", 1)

	// Worker defaults
	viper.SetDefault("WORKER_CONCURRENCY", 2)
	viper.SetDefault("WORKER_SHUTDOWN_TIMEOUT", 60)

	// LLM defaults
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("LLM_TEMPERATURE", 0.2)
	viper.SetDefault("LLM_MAX_OUTPUT_TOKENS", 4000)
	viper.SetDefault("LLM_TOP_P", 0.9)
	viper.SetDefault("LLM_TIMEOUT", "120s")

	// OCR defaults
	viper.SetDefault("OCR_PDFTOPPM", "pdftoppm")
	viper.SetDefault("OCR_TESSERACT", "tesseract")
	viper.SetDefault("OCR_LANGUAGE", "ind")
	viper.SetDefault("OCR_DPI", 300)
	viper.SetDefault("OCR_MAX_PAGES", 0)
	viper.SetDefault("EXTRACT_MIN_TEXT_LENGTH", 100)
	viper.SetDefault("TEXT_CLEANER", "complaint")

	// File processing defaults
	viper.SetDefault("TEMP_DIR", "/tmp/complaint-uploads")
	viper.SetDefault("MAX_FILE_SIZE_MB", 20)
	viper.SetDefault("UPLOAD_RETENTION_HOURS", 24)
	viper.SetDefault("UPLOAD_CLEANUP_SCHEDULE", "@hourly")

	viper.SetDefault("S3_ENABLED", false)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "complaints")
}

// Validate checks required fields
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.LLM.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if c.Storage.S3Enabled && (c.Storage.S3Endpoint == "" || c.Storage.S3AccessKey == "" || c.Storage.S3SecretKey == "") {
		return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENABLED is set")
	}

	return nil
}

// GetServerAddr returns host:port for the HTTP listener
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// GetRedisAddr constructs the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("configuration loaded",
		slog.String("environment", c.Environment),
		slog.String("server", c.GetServerAddr()),
		slog.String("api_key", redact(c.APIKey)),
		slog.String("db_driver", c.Database.Driver),
		slog.String("database", fmt.Sprintf("%s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Database)),
		slog.Bool("redis_enabled", c.Redis.Enabled),
		slog.String("gemini_model", c.LLM.GeminiModel),
		slog.String("gemini_api_key", redact(c.LLM.GeminiAPIKey)),
		slog.String("ocr_language", c.OCR.Language),
		slog.String("text_cleaner", c.OCR.TextCleaner),
		slog.Bool("s3_enabled", c.Storage.S3Enabled),
	)
}

func redact(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	return "[CONFIGURED]"
}
