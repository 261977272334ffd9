package tlc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// tripLinkRegexp matches yellow-taxi extract links and captures the month.
var tripLinkRegexp = regexp.MustCompile(`yellow_tripdata_(\d{4}-\d{2})\.parquet$`)

// DiscoverLinks opens the TLC trip-record page in a headless browser and
// collects the yellow-taxi extract link of every month listed there. The
// links are used by Files in place of the URL template.
func (s *Source) DiscoverLinks(ctx context.Context) (map[string]string, error) {
	chromeBin := s.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Info("[tlc] Discovering extract links on %s (browser: %s)", s.cfg.TLCPageURL, chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var hrefs []string
	err := s.retry.Do(ctx, "discover-links", func() error {
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(s.cfg.TLCPageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(`Array.from(document.querySelectorAll('a[href]')).map(a => a.href)`, &hrefs),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("tlc: discover links: %w", err)
	}

	links := parseTripLinks(hrefs)
	if len(links) == 0 {
		return nil, fmt.Errorf("tlc: no yellow taxi extracts linked from %s", s.cfg.TLCPageURL)
	}

	s.mu.Lock()
	s.discovered = links
	s.mu.Unlock()

	s.logger.Info("[tlc] Discovered %d monthly extracts", len(links))
	return links, nil
}

// parseTripLinks maps YYYY-MM to the first extract link found for it.
func parseTripLinks(hrefs []string) map[string]string {
	links := make(map[string]string)
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		m := tripLinkRegexp.FindStringSubmatch(href)
		if len(m) < 2 {
			continue
		}
		if _, seen := links[m[1]]; !seen {
			links[m[1]] = href
		}
	}
	return links
}

func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
