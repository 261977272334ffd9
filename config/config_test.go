package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taxi-report/services"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("START_DATE", "2022-01-01")
	t.Setenv("END_DATE", "2022-03-31")
	t.Setenv("MAX_CONCURRENCY", "4")
	t.Setenv("POSTGRES_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StartDate.String() != "2022-01-01" || cfg.EndDate.String() != "2022-03-31" {
		t.Errorf("range: got %s..%s, want 2022-01-01..2022-03-31", cfg.StartDate, cfg.EndDate)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("MaxConcurrency: got %d, want 4", cfg.MaxConcurrency)
	}
	if !cfg.PostgresEnabled {
		t.Error("PostgresEnabled: got false, want true")
	}
	if cfg.ExcelOutputPath != "./output/processed_data.xlsx" {
		t.Errorf("ExcelOutputPath default: got %q", cfg.ExcelOutputPath)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`start_date: "2022-02-01"
end_date: "2022-02-28"
data_dir: /tmp/taxi
max_retries: 5
csv_output_path: /tmp/out/weekly.csv
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("START_DATE", "")
	t.Setenv("END_DATE", "2022-03-15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StartDate.String() != "2022-02-01" {
		t.Errorf("StartDate: got %s, want 2022-02-01 from file", cfg.StartDate)
	}
	if cfg.EndDate.String() != "2022-03-15" {
		t.Errorf("EndDate: got %s, want 2022-03-15 from env", cfg.EndDate)
	}
	if cfg.DataDir != "/tmp/taxi" || cfg.MaxRetries != 5 || cfg.CSVOutputPath != "/tmp/out/weekly.csv" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing start", func(c *Config) { c.StartDateRaw = "" }, ErrInvalidConfig},
		{"bad date", func(c *Config) { c.EndDateRaw = "31/03/2022" }, ErrInvalidConfig},
		{"inverted range", func(c *Config) { c.StartDateRaw = "2022-04-01" }, services.ErrInvalidRange},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, ErrInvalidConfig},
		{"template without month", func(c *Config) { c.SourceURLTemplate = "https://example.com/data.parquet" }, ErrInvalidConfig},
		{"workbook extension", func(c *Config) { c.ExcelOutputPath = "./out/report.xls" }, ErrInvalidConfig},
		{"postgres without host", func(c *Config) { c.PostgresEnabled, c.PostgresHost = true, "" }, ErrInvalidConfig},
		{"unknown log level", func(c *Config) { c.LogLevel = "chatty" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		cfg := defaults()
		cfg.StartDateRaw, cfg.EndDateRaw = "2022-03-01", "2022-03-31"
		tt.mutate(cfg)

		err := cfg.Validate()
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestDSN(t *testing.T) {
	cfg := defaults()
	want := "host=localhost port=5432 user=taxi password=taxi123 dbname=taxi_reports sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
