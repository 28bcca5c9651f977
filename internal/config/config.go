package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Sources  SourcesConfig  `yaml:"sources" envconfig:"SOURCES"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// SourcesConfig locates the five source tables. Each table resolves to a
// CSV export URL built from SpreadsheetID and the per-table GID, unless an
// explicit URL override is set. When APIKey is non-empty the Google Sheets
// API is used instead of the CSV export endpoint.
type SourcesConfig struct {
	SpreadsheetID string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	APIKey        string        `yaml:"api_key" envconfig:"API_KEY"`
	Transactions  TableConfig   `yaml:"transactions" envconfig:"TRANSACTIONS"`
	Items         TableConfig   `yaml:"items" envconfig:"ITEMS"`
	Staff         TableConfig   `yaml:"staff" envconfig:"STAFF"`
	Customers     TableConfig   `yaml:"customers" envconfig:"CUSTOMERS"`
	Logs          TableConfig   `yaml:"logs" envconfig:"LOGS"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
}

// TableConfig identifies one source table within the spreadsheet. Range is
// only used in Sheets API mode.
type TableConfig struct {
	GID   string `yaml:"gid" envconfig:"GID"`
	Range string `yaml:"range" envconfig:"RANGE"`
	URL   string `yaml:"url" envconfig:"URL"`
}

// PipelineConfig contains reconciliation settings
type PipelineConfig struct {
	// Timezone mod-log UTC timestamps are converted into before the
	// timezone annotation is stripped.
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE" default:"Australia/Brisbane"`
	// EngineTimeFormat is the Go layout for engine sale timestamps.
	EngineTimeFormat string `yaml:"engine_time_format" envconfig:"ENGINE_TIME_FORMAT" default:"1/2/2006 15:04:05"`
	// StaffSkipRows is the number of decorative header rows before the
	// staff reference data starts.
	StaffSkipRows int `yaml:"staff_skip_rows" envconfig:"STAFF_SKIP_ROWS" default:"3"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SAC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Sources.SpreadsheetID == "" {
		envConfig.Sources.SpreadsheetID = fileConfig.Sources.SpreadsheetID
	}
	if envConfig.Sources.APIKey == "" {
		envConfig.Sources.APIKey = fileConfig.Sources.APIKey
	}
	mergeTable := func(env *TableConfig, file TableConfig) {
		if env.GID == "" {
			env.GID = file.GID
		}
		if env.Range == "" {
			env.Range = file.Range
		}
		if env.URL == "" {
			env.URL = file.URL
		}
	}
	mergeTable(&envConfig.Sources.Transactions, fileConfig.Sources.Transactions)
	mergeTable(&envConfig.Sources.Items, fileConfig.Sources.Items)
	mergeTable(&envConfig.Sources.Staff, fileConfig.Sources.Staff)
	mergeTable(&envConfig.Sources.Customers, fileConfig.Sources.Customers)
	mergeTable(&envConfig.Sources.Logs, fileConfig.Sources.Logs)

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Pipeline.Timezone == "" {
		return fmt.Errorf("pipeline timezone must be set")
	}

	if c.Pipeline.StaffSkipRows < 0 {
		return fmt.Errorf("staff skip rows must not be negative")
	}

	for name, table := range map[string]TableConfig{
		"transactions": c.Sources.Transactions,
		"items":        c.Sources.Items,
		"staff":        c.Sources.Staff,
		"customers":    c.Sources.Customers,
		"logs":         c.Sources.Logs,
	} {
		if table.URL == "" && (c.Sources.SpreadsheetID == "" || table.GID == "") {
			return fmt.Errorf("source %s needs either a url or spreadsheet_id+gid", name)
		}
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration suitable for tests
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
		Sources: SourcesConfig{
			SpreadsheetID: "spreadsheet-id",
			Transactions:  TableConfig{GID: "645688819"},
			Items:         TableConfig{GID: "824906690"},
			Staff:         TableConfig{GID: "1941399770"},
			Customers:     TableConfig{GID: "1921622491"},
			Logs:          TableConfig{GID: "316444388"},
			FetchTimeout:  30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Timezone:         "Australia/Brisbane",
			EngineTimeFormat: "1/2/2006 15:04:05",
			StaffSkipRows:    3,
		},
	}
}
