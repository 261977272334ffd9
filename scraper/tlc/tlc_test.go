package tlc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/parquet-go/parquet-go"

	"taxi-report/config"
	"taxi-report/utils"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		StartDate:         civil.Date{Year: 2022, Month: time.February, Day: 20},
		EndDate:           civil.Date{Year: 2022, Month: time.March, Day: 5},
		DataDir:           t.TempDir(),
		SourceURLTemplate: baseURL + "/trip-data/yellow_tripdata_{month}.parquet",
		MaxConcurrency:    2,
		MaxRetries:        3,
	}
}

func newTestSource(cfg *config.Config) *Source {
	s := New(cfg, utils.NewLogger())
	s.retry.BaseDelay = time.Millisecond
	return s
}

func TestMonths(t *testing.T) {
	tests := []struct {
		start, end civil.Date
		want       []string
	}{
		{civil.Date{Year: 2022, Month: 3, Day: 1}, civil.Date{Year: 2022, Month: 3, Day: 31}, []string{"2022-03"}},
		{civil.Date{Year: 2022, Month: 2, Day: 20}, civil.Date{Year: 2022, Month: 3, Day: 5}, []string{"2022-02", "2022-03"}},
		{civil.Date{Year: 2021, Month: 11, Day: 15}, civil.Date{Year: 2022, Month: 1, Day: 2}, []string{"2021-11", "2021-12", "2022-01"}},
		{civil.Date{Year: 2022, Month: 5, Day: 9}, civil.Date{Year: 2022, Month: 5, Day: 9}, []string{"2022-05"}},
	}

	for _, tt := range tests {
		got := Months(tt.start, tt.end)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Months(%s, %s): got %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestFilesPreferDiscoveredLinks(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	s := newTestSource(cfg)
	s.discovered = map[string]string{"2022-03": "https://mirror.example.com/yellow_tripdata_2022-03.parquet"}

	files := s.Files()
	if len(files) != 2 {
		t.Fatalf("files: got %d, want 2", len(files))
	}
	if files[0].URL != "https://example.com/trip-data/yellow_tripdata_2022-02.parquet" {
		t.Errorf("template URL: got %s", files[0].URL)
	}
	if files[1].URL != "https://mirror.example.com/yellow_tripdata_2022-03.parquet" {
		t.Errorf("discovered URL: got %s", files[1].URL)
	}
	if want := filepath.Join(cfg.DataDir, "yellow_tripdata_2022-02.parquet"); files[0].Path != want {
		t.Errorf("path: got %s, want %s", files[0].Path, want)
	}
}

func TestParseTripLinks(t *testing.T) {
	hrefs := []string{
		"https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2022-03.parquet",
		" https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2022-04.parquet ",
		"https://d37ci6vzurychx.cloudfront.net/trip-data/green_tripdata_2022-03.parquet",
		"https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2022-03.parquet?dup=1",
		"https://example.com/mirror/yellow_tripdata_2022-03.parquet",
		"https://www.nyc.gov/assets/tlc/downloads/pdf/data_dictionary_trip_records_yellow.pdf",
	}

	got := parseTripLinks(hrefs)
	want := map[string]string{
		"2022-03": "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2022-03.parquet",
		"2022-04": "https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2022-04.parquet",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTripLinks: got %v, want %v", got, want)
	}
}

func TestFetchRetriesAndCaches(t *testing.T) {
	var hits atomic.Int32
	var failedOnce atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/trip-data/yellow_tripdata_2022-02.parquet" && failedOnce.CompareAndSwap(false, true) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("payload " + r.URL.Path))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	files, err := newTestSource(cfg).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files: got %d, want 2", len(files))
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("requests: got %d, want 3 (one retried)", got)
	}
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatalf("read %s: %v", f.Path, err)
		}
		if want := "payload /trip-data/yellow_tripdata_" + f.Month + ".parquet"; string(data) != want {
			t.Errorf("%s content: got %q, want %q", f.Month, data, want)
		}
	}

	// A fresh source over the same data dir must reuse the files.
	if _, err := newTestSource(cfg).Fetch(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("requests after cached fetch: got %d, want 3", got)
	}
}

func TestFetchGivesUpOnMissingMonth(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.MaxRetries = 2
	if _, err := newTestSource(cfg).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 404 responses")
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("data dir: got %d leftover files, want 0", len(entries))
	}
}

type extractRow struct {
	Pickup     int64    `parquet:"tpep_pickup_datetime"`
	Dropoff    int64    `parquet:"tpep_dropoff_datetime"`
	Passengers *float64 `parquet:"passenger_count"`
	Distance   float64  `parquet:"trip_distance"`
	RateCode   *float64 `parquet:"RatecodeID"`
	Amount     float64  `parquet:"total_amount"`
	Extra      string   `parquet:"store_and_fwd_flag"`
}

func TestDecodeParquet(t *testing.T) {
	pickup := time.Date(2022, 3, 1, 8, 15, 0, 0, time.UTC)
	dropoff := pickup.Add(12 * time.Minute)
	two, jfk := 2.0, 2.0

	rows := []extractRow{
		{Pickup: pickup.UnixMicro(), Dropoff: dropoff.UnixMicro(), Passengers: &two, Distance: 3.4, RateCode: &jfk, Amount: 52.8, Extra: "N"},
		{Pickup: pickup.UnixMicro(), Dropoff: dropoff.UnixMicro(), Distance: 1.1, Amount: 9.5, Extra: "Y"},
	}

	path := filepath.Join(t.TempDir(), "extract.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := parquet.Write(f, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	f.Close()

	got, err := DecodeParquet(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows: got %d, want 2", len(got))
	}

	first := got[0]
	if first.PickupTime == nil || !first.PickupTime.Equal(pickup) {
		t.Errorf("pickup: got %v, want %v", first.PickupTime, pickup)
	}
	if first.DropoffTime == nil || !first.DropoffTime.Equal(dropoff) {
		t.Errorf("dropoff: got %v, want %v", first.DropoffTime, dropoff)
	}
	if first.PassengerCount == nil || *first.PassengerCount != 2 {
		t.Errorf("passengers: got %v, want 2", first.PassengerCount)
	}
	if first.TripDistance == nil || *first.TripDistance != 3.4 {
		t.Errorf("distance: got %v, want 3.4", first.TripDistance)
	}
	if first.RateCodeID == nil || *first.RateCodeID != 2 {
		t.Errorf("rate code: got %v, want 2", first.RateCodeID)
	}
	if first.TotalAmount == nil || *first.TotalAmount != 52.8 {
		t.Errorf("amount: got %v, want 52.8", first.TotalAmount)
	}

	second := got[1]
	if second.PassengerCount != nil || second.RateCodeID != nil {
		t.Errorf("null cells: got passengers=%v rate=%v, want nil", second.PassengerCount, second.RateCodeID)
	}
}

func TestDecodeParquetMissingColumn(t *testing.T) {
	type partial struct {
		Distance float64 `parquet:"trip_distance"`
	}
	path := filepath.Join(t.TempDir(), "partial.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := parquet.Write(f, []partial{{Distance: 1}}); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	f.Close()

	if _, err := DecodeParquet(path); err == nil {
		t.Error("expected error for extract without pickup column")
	}
}
