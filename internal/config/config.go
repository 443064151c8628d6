package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data backends accepted in DATA_BACKEND.
const (
	BackendFile   = "file"
	BackendHTTP   = "http"
	BackendSheets = "sheets"
	BackendS3     = "s3"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists every valid DATA_BACKEND value.
var Backends = []string{BackendFile, BackendHTTP, BackendSheets, BackendS3, BackendSQLite, BackendMemory}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string
	DatasetPath string
	LoadTimeout time.Duration

	// HTTP backend
	DatasetBaseURL string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// S3
	S3Bucket    string
	S3Key       string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string // routing key; each server binds its own queue with it

	// Reload worker
	ReloadInterval time.Duration

	// Views
	MaterialLimit int
	PieOther      bool
	CacheSize     int
	CacheTTL      time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", BackendFile),
		DatasetPath: getEnv("DATASET_PATH", "data/df_second_assignment.csv"),
		LoadTimeout: getEnvDuration("LOAD_TIMEOUT", 30*time.Second),

		DatasetBaseURL: getEnv("DATASET_BASE_URL", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Data"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Key:       getEnv("S3_KEY", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PathStyle: getEnvBool("S3_PATH_STYLE", false),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/wastedash.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wastedash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_updates"),

		ReloadInterval: getEnvDuration("RELOAD_INTERVAL", 0),

		MaterialLimit: getEnvInt("MATERIAL_LIMIT", 6),
		PieOther:      getEnvBool("PIE_OTHER_BUCKET", false),
		CacheSize:     getEnvInt("VIEW_CACHE_SIZE", 256),
		CacheTTL:      getEnvDuration("VIEW_CACHE_TTL", 10*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DatasetPath == "" {
			errors = append(errors, "DATASET_PATH is required when using file backend")
		}
	case BackendHTTP:
		if c.DatasetBaseURL == "" {
			errors = append(errors, "DATASET_BASE_URL is required when using http backend")
		} else if u, err := url.Parse(c.DatasetBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid DATASET_BASE_URL '%s': must be an http(s) URL", c.DatasetBaseURL))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		} else if c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendS3:
		if c.S3Bucket == "" {
			errors = append(errors, "S3_BUCKET is required when using s3 backend")
		}
		if c.S3Key == "" {
			errors = append(errors, "S3_KEY is required when using s3 backend")
		}
		if c.S3Endpoint != "" {
			if _, err := url.ParseRequestURI(c.S3Endpoint); err != nil {
				errors = append(errors, fmt.Sprintf("invalid S3_ENDPOINT '%s': %v", c.S3Endpoint, err))
			}
		}
	case BackendSQLite:
		errors = append(errors, c.validateSQLitePath()...)
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReloadInterval != 0 && c.ReloadInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must be 0 (disabled) or at least 1 second", c.ReloadInterval))
	}
	if c.LoadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid load timeout %v: must be positive", c.LoadTimeout))
	}
	if c.MaterialLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid material limit %d: must be at least 1", c.MaterialLimit))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid view cache TTL %v: must be positive", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateImport checks the settings used by the importer, which always
// writes to SQLite regardless of DATA_BACKEND.
func (c *Config) ValidateImport() error {
	errors := c.validateSQLitePath()
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateSQLitePath() []string {
	if c.SQLiteDBPath == "" {
		return []string{"SQLite database path cannot be empty when using sqlite backend"}
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)}
			}
		}
	}
	return nil
}

// SourceName describes the configured backend for logs and health output.
func (c *Config) SourceName() string {
	switch c.DataBackend {
	case BackendHTTP:
		return strings.TrimRight(c.DatasetBaseURL, "/") + "/" + strings.TrimLeft(c.DatasetPath, "/")
	case BackendSheets:
		return "sheets:" + c.GoogleSpreadsheetID + "/" + c.GoogleSheetName
	case BackendS3:
		return "s3://" + c.S3Bucket + "/" + c.S3Key
	case BackendSQLite:
		return "sqlite:" + c.SQLiteDBPath
	case BackendMemory:
		return "memory"
	default:
		return c.DatasetPath
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
