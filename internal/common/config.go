package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	ERPNext ERPNextConfig
	Gemini  GeminiConfig
	OCR     OCRConfig
	Journal JournalConfig
	Worker  WorkerConfig
}

// ServerConfig holds upload-API configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins string
	MaxFileBytes   int64
	MaxFilesPerReq int
	RateLimit      int           // requests per window, per client
	RateWindow     time.Duration // rate-limit window
}

// ERPNextConfig holds resource-management system configuration
type ERPNextConfig struct {
	URL       string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// GeminiConfig holds extraction-service configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OCRConfig holds text-recovery configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// JournalConfig holds processing-journal configuration
type JournalConfig struct {
	Path string
}

// WorkerConfig holds batch-processing configuration
type WorkerConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":5000"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
			MaxFileBytes:   int64(getEnvAsInt("MAX_FILE_MB", 10)) * 1024 * 1024,
			MaxFilesPerReq: getEnvAsInt("MAX_FILES_PER_REQUEST", 5),
			RateLimit:      getEnvAsInt("RATE_LIMIT_REQUESTS", 50),
			RateWindow:     getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		ERPNext: ERPNextConfig{
			URL:       getEnv("ERPNEXT_URL", ""),
			APIKey:    getEnv("ERPNEXT_API_KEY", ""),
			APISecret: getEnv("ERPNEXT_API_SECRET", ""),
			Timeout:   getEnvAsDuration("ERPNEXT_TIMEOUT", 30*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Journal: JournalConfig{
			Path: getEnv("JOURNAL_DB_PATH", "./quoteproc.db"),
		},
		Worker: WorkerConfig{
			Workers:   getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize: getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("PIPELINE_TIMEOUT", 3*time.Minute),
		},
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// HasERPNext reports whether enough configuration is present to build
// a resource-management client. Absence is not an error: the pipeline
// degrades to extract-only mode.
func (c *Config) HasERPNext() bool {
	return c.ERPNext.URL != "" && c.ERPNext.APIKey != "" && c.ERPNext.APISecret != ""
}

// HasGemini reports whether the extraction service is configured.
// Without it, schema extraction uses the naive fallback parser only.
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}
