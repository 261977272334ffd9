package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"taxi-report/services"
)

const (
	defaultURLTemplate = "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_{month}.parquet"
	defaultTLCPageURL  = "https://www.nyc.gov/site/tlc/about/tlc-trip-record-data.page"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration. Values come from an optional
// YAML file first and are then overridden by environment variables.
type Config struct {
	StartDate civil.Date `yaml:"-"`
	EndDate   civil.Date `yaml:"-"`

	StartDateRaw string `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDateRaw   string `yaml:"end_date" validate:"required,datetime=2006-01-02"`

	DataDir           string `yaml:"data_dir" validate:"required"`
	SourceURLTemplate string `yaml:"source_url_template" validate:"required,url,contains={month}"`
	DiscoverLinks     bool   `yaml:"discover_links"`
	TLCPageURL        string `yaml:"tlc_page_url" validate:"omitempty,url"`
	ChromeBin         string `yaml:"chrome_bin"`

	MaxConcurrency int `yaml:"max_concurrency" validate:"min=1,max=12"`
	RateLimitMs    int `yaml:"rate_limit_ms" validate:"min=0"`
	MaxRetries     int `yaml:"max_retries" validate:"min=1"`

	CSVOutputPath   string `yaml:"csv_output_path" validate:"required"`
	ExcelOutputPath string `yaml:"excel_output_path" validate:"required,endswith=.xlsx"`

	PostgresEnabled  bool   `yaml:"postgres_enabled"`
	PostgresHost     string `yaml:"postgres_host" validate:"required_if=PostgresEnabled true"`
	PostgresPort     string `yaml:"postgres_port" validate:"required_if=PostgresEnabled true"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db" validate:"required_if=PostgresEnabled true"`
	PostgresSSLMode  string `yaml:"postgres_sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
}

// defaults mirrors the documented fallback of every key.
func defaults() *Config {
	return &Config{
		DataDir:           "./data",
		SourceURLTemplate: defaultURLTemplate,
		TLCPageURL:        defaultTLCPageURL,

		MaxConcurrency: 3,
		RateLimitMs:    500,
		MaxRetries:     3,

		CSVOutputPath:   "./output/processed_data.csv",
		ExcelOutputPath: "./output/processed_data.xlsx",

		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "taxi",
		PostgresPassword: "taxi123",
		PostgresDB:       "taxi_reports",
		PostgresSSLMode:  "disable",

		LogLevel: "info",
	}
}

// Load reads the .env file, the optional YAML file named by CONFIG_FILE and
// the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("[config] No .env file found, falling back to system env vars")
	}

	cfg := defaults()
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
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.StartDateRaw = getEnv("START_DATE", c.StartDateRaw)
	c.EndDateRaw = getEnv("END_DATE", c.EndDateRaw)

	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SourceURLTemplate = getEnv("SOURCE_URL_TEMPLATE", c.SourceURLTemplate)
	c.DiscoverLinks = getEnvBool("DISCOVER_LINKS", c.DiscoverLinks)
	c.TLCPageURL = getEnv("TLC_PAGE_URL", c.TLCPageURL)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)

	c.MaxConcurrency = getEnvInt("MAX_CONCURRENCY", c.MaxConcurrency)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)

	c.CSVOutputPath = getEnv("CSV_OUTPUT_PATH", c.CSVOutputPath)
	c.ExcelOutputPath = getEnv("EXCEL_OUTPUT_PATH", c.ExcelOutputPath)

	c.PostgresEnabled = getEnvBool("POSTGRES_ENABLED", c.PostgresEnabled)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
}

// Validate checks the struct rules, parses the date range and rejects a range
// whose end precedes its start.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	start, err := civil.ParseDate(c.StartDateRaw)
	if err != nil {
		return fmt.Errorf("%w: start_date: %v", ErrInvalidConfig, err)
	}
	end, err := civil.ParseDate(c.EndDateRaw)
	if err != nil {
		return fmt.Errorf("%w: end_date: %v", ErrInvalidConfig, err)
	}
	if end.Before(start) {
		return fmt.Errorf("config %s..%s: %w", start, end, services.ErrInvalidRange)
	}

	c.StartDate, c.EndDate = start, end
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Warnf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Warnf("[config] %s=%q is not a boolean, using %t", key, val, fallback)
	}
	return fallback
}
