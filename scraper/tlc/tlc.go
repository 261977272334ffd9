package tlc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/config"
	"taxi-report/models"
	"taxi-report/utils"
)

const monthPlaceholder = "{month}"

// MonthFile is one monthly extract to download.
type MonthFile struct {
	Month string // YYYY-MM
	URL   string
	Path  string // local cache location
}

// Source resolves, downloads and decodes the monthly yellow-taxi extracts
// covering the configured date range.
type Source struct {
	cfg     *config.Config
	logger  *utils.Logger
	retry   *utils.RetryConfig
	client  *http.Client
	visited *utils.URLSet

	mu         sync.Mutex
	discovered map[string]string
}

// New creates a ready-to-use Source.
func New(cfg *config.Config, logger *utils.Logger) *Source {
	return &Source{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		client:  &http.Client{Timeout: 10 * time.Minute},
		visited: utils.NewURLSet(),
	}
}

// Months returns the YYYY-MM label of every calendar month the range
// touches, including partially covered first and last months.
func Months(start, end civil.Date) []string {
	var months []string
	cur := civil.Date{Year: start.Year, Month: start.Month, Day: 1}
	last := civil.Date{Year: end.Year, Month: end.Month, Day: 1}
	for !last.Before(cur) {
		months = append(months, fmt.Sprintf("%04d-%02d", cur.Year, int(cur.Month)))
		if cur.Month == time.December {
			cur = civil.Date{Year: cur.Year + 1, Month: time.January, Day: 1}
		} else {
			cur = civil.Date{Year: cur.Year, Month: cur.Month + 1, Day: 1}
		}
	}
	return months
}

// Files lists the extracts to fetch. Links found by DiscoverLinks take
// precedence over the URL template.
func (s *Source) Files() []MonthFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []MonthFile
	for _, month := range Months(s.cfg.StartDate, s.cfg.EndDate) {
		url, ok := s.discovered[month]
		if !ok {
			url = strings.ReplaceAll(s.cfg.SourceURLTemplate, monthPlaceholder, month)
		}
		files = append(files, MonthFile{
			Month: month,
			URL:   url,
			Path:  filepath.Join(s.cfg.DataDir, "yellow_tripdata_"+month+".parquet"),
		})
	}
	return files
}

// Fetch downloads every missing extract into the data directory using the
// bounded worker pool. Files already on disk are reused.
func (s *Source) Fetch(ctx context.Context) ([]MonthFile, error) {
	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("tlc: create data dir: %w", err)
	}

	files := s.Files()
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)

	for _, file := range files {
		file := file
		if !s.visited.Add(file.URL) {
			s.logger.Debug("[tlc] Duplicate URL skipped: %s", file.URL)
			continue
		}
		if info, err := os.Stat(file.Path); err == nil && info.Size() > 0 {
			s.logger.Info("[tlc] %s cached at %s", file.Month, file.Path)
			continue
		}

		pool.Submit(func() error {
			return s.retry.Do(ctx, "download "+file.Month, func() error {
				return s.download(ctx, file)
			})
		})
	}

	if err := pool.Wait(); err != nil {
		return nil, fmt.Errorf("tlc: fetch: %w", err)
	}
	return files, nil
}

func (s *Source) download(ctx context.Context, file MonthFile) error {
	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", file.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(file.Path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("GET %s: %w", file.URL, err)
	}
	if err := os.Rename(tmp.Name(), file.Path); err != nil {
		return err
	}

	s.logger.Info("[tlc] Downloaded %s (%.1f MB) in %v", file.Month, float64(n)/(1<<20), time.Since(started).Round(time.Millisecond))
	return nil
}

// Load fetches and decodes every extract, returning the raw trips of all
// months concatenated in month order.
func (s *Source) Load(ctx context.Context) ([]models.RawTrip, error) {
	if s.cfg.DiscoverLinks {
		if _, err := s.DiscoverLinks(ctx); err != nil {
			s.logger.Warn("[tlc] Link discovery failed, using URL template: %v", err)
		}
	}

	files, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Month < files[j].Month })

	var trips []models.RawTrip
	for _, file := range files {
		rows, err := DecodeParquet(file.Path)
		if err != nil {
			return nil, fmt.Errorf("tlc: decode %s: %w", file.Month, err)
		}
		s.logger.Info("[tlc] %s: %d records", file.Month, len(rows))
		trips = append(trips, rows...)
	}
	return trips, nil
}
