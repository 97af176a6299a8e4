package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Export   ExportConfig
	Mail     MailConfig
}

// DatabaseConfig holds database-related configuration. An empty DSN disables persistence.
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr       string
	ExtractTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string // "tesseract" | "gosseract"
	DPI         int
	Language    string
	TessdataDir string
	Pdftoppm    string
	Tesseract   string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider   string // "gemini" | "openai" | "anthropic"
	Model      string
	APIKey     string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// ExportConfig holds spreadsheet artifact configuration
type ExportConfig struct {
	OutputDir string
}

// MailConfig holds SMTP configuration
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
	From     string
	Workers  int
}

// LoadConfig loads configuration from environment variables, reading a local .env first if one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	smtpUser := getEnv("SMTP_USER", "")

	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			ExtractTimeout: getEnvAsDuration("EXTRACT_TIMEOUT", 3*time.Minute),
		},
		OCR: OCRConfig{
			Engine:      strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
			DPI:         getEnvAsInt("OCR_DPI", 150),
			Language:    getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Pdftoppm:    popplerBinary(getEnv("PDFTOPPM_PATH", ""), getEnv("POPPLER_PATH", "")),
			Tesseract:   getEnv("TESSERACT_PATH", "tesseract"),
		},
		LLM: LLMConfig{
			Provider:   provider,
			Model:      getEnv("LLM_MODEL", defaultModel(provider)),
			APIKey:     getEnv(apiKeyVar(provider), ""),
			Timeout:    getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			RatePerSec: getEnvAsFloat64("LLM_RATE_PER_SEC", 2),
			Burst:      getEnvAsInt("LLM_BURST", 2),
		},
		Export: ExportConfig{
			OutputDir: getEnv("EXCEL_OUTPUT_DIR", "generated_excel"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     smtpUser,
			Password: getEnv("SMTP_PASSWORD", ""),
			UseTLS:   getEnvAsBool("SMTP_USE_TLS", true),
			From:     getEnv("MAIL_FROM", smtpUser),
			Workers:  getEnvAsInt("MAIL_WORKERS", 2),
		},
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-2.0-flash"
	}
}

func apiKeyVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}

// popplerBinary resolves pdftoppm from an explicit path or a poppler bin directory.
func popplerBinary(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	dir = strings.Trim(strings.TrimSpace(dir), `"'`)
	if dir == "" {
		return "pdftoppm"
	}
	return strings.TrimRight(dir, `/\`) + string(os.PathSeparator) + "pdftoppm"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// PersistenceEnabled reports whether a database DSN was configured.
func (c *Config) PersistenceEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// Configured reports whether SMTP host and credentials are all present.
func (c MailConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be gemini, openai or anthropic", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "tesseract", "gosseract":
	default:
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be tesseract or gosseract", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	return nil
}
