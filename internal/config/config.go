package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port               string `envconfig:"PORT" default:"8081"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	// Timezone decides which calendar day is "today" for overdue detection.
	Timezone string `envconfig:"TIMEZONE" default:"Asia/Tokyo"`

	// Storage
	DataBackend  string `envconfig:"DATA_BACKEND" default:"memory"`
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/paysched.db"`
	SeedDemo     bool   `envconfig:"SEED_DEMO" default:"false"`

	// Documents
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./data/uploads"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"paysched"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"payment_events"`

	// Google Sheets ledger export
	GoogleSpreadsheetID      string        `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string        `envconfig:"GOOGLE_SHEET_NAME" default:"Payments"`
	GoogleServiceAccountFile string        `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string        `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	ExportInterval           time.Duration `envconfig:"EXPORT_INTERVAL" default:"5m"`

	// Worker /metrics listener, disabled when empty
	WorkerMetricsPort string `envconfig:"WORKER_METRICS_PORT" default:"9091"`
}

// Load reads the configuration from the environment. It does not validate.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := c.Level(); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if strings.TrimSpace(c.UploadDir) == "" {
		errors = append(errors, "upload directory cannot be empty")
	}
	if c.UploadMaxBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload limit %d: must be positive", c.UploadMaxBytes))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
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

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker adds the checks only the export worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.DataBackend != BackendSQLite {
		errors = append(errors, "the export worker needs DATA_BACKEND=sqlite to share the database")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the export worker")
	}
	if c.WorkerMetricsPort != "" {
		if port, err := strconv.Atoi(c.WorkerMetricsPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid WORKER_METRICS_PORT '%s'", c.WorkerMetricsPort))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether ledger export has somewhere to write.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel)
	}
	return l, nil
}

// Location is the configured timezone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
