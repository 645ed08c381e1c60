// Package scraper fetches macro indicators (key rate, inflation, GDP
// growth) from the central bank's public indicators page.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finchoice/backend/internal/model"
)

// IndicatorsScraper pulls the key-indicators page and extracts the macro
// figures the matching layer consumes. Any failure falls back to the
// last known defaults so a flaky source never blocks recommendations.
type IndicatorsScraper struct {
	client *http.Client
	url    string
	logger *slog.Logger
	retry  RetryConfig
}

// fallbackIndicators are served when the page cannot be fetched or parsed.
var fallbackIndicators = model.MarketConditions{
	CentralBankRate: 16.0,
	InflationRate:   7.4,
	GDPGrowth:       1.5,
}

func NewIndicatorsScraper(url string, timeout time.Duration, logger *slog.Logger) *IndicatorsScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndicatorsScraper{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger,
		retry:  DefaultRetryConfig(),
	}
}

// Fetch retrieves and parses the indicators page. On failure it returns
// the fallback snapshot with a nil error: stale defaults beat no data.
func (s *IndicatorsScraper) Fetch(ctx context.Context) (model.MarketConditions, error) {
	var doc *goquery.Document

	err := WithRetry(ctx, s.retry, s.logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return NewScrapeError("indicators", "build request", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; finchoice/1.0)")

		resp, err := s.client.Do(req)
		if err != nil {
			return NewScrapeError("indicators", "fetch", ErrSourceUnavailable)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			return NewScrapeError("indicators", "fetch", ErrRateLimited)
		}
		if resp.StatusCode != http.StatusOK {
			return NewScrapeError("indicators", "fetch", ErrInvalidResponse)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return NewScrapeError("indicators", "parse html", ErrParsingFailed)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("indicators fetch failed, serving fallback",
			slog.String("url", s.url),
			slog.String("error", err.Error()),
		)
		fallback := fallbackIndicators
		fallback.FetchedAt = time.Now()
		return fallback, nil
	}

	conditions := s.parseIndicators(doc)
	conditions.FetchedAt = time.Now()
	return conditions, nil
}

// parseIndicators walks the indicator blocks. The page lists each figure
// as a labeled value; unknown labels are skipped and missing figures keep
// their fallback value.
func (s *IndicatorsScraper) parseIndicators(doc *goquery.Document) model.MarketConditions {
	conditions := fallbackIndicators
	found := 0

	doc.Find(".indicator, .main-indicator, tr").Each(func(i int, sel *goquery.Selection) {
		label := strings.ToLower(sel.Find(".indicator_title, .name, td:first-child, th").First().Text())
		valueText := sel.Find(".indicator_value, .value, td:last-child").First().Text()

		value, err := ParseNumber(valueText)
		if err != nil {
			return
		}

		switch {
		case strings.Contains(label, "key rate"), strings.Contains(label, "ключевая ставка"):
			conditions.CentralBankRate = value
			found++
		case strings.Contains(label, "inflation"), strings.Contains(label, "инфляция"):
			conditions.InflationRate = value
			found++
		case strings.Contains(label, "gdp"), strings.Contains(label, "ввп"):
			conditions.GDPGrowth = value
			found++
		}
	})

	if found == 0 {
		s.logger.Warn("no indicators recognized on page, serving fallback")
	}
	return conditions
}

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ParseNumber extracts the first decimal number from free text, accepting
// both dot and comma decimal separators.
func ParseNumber(text string) (float64, error) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, ErrNoDataFound
	}
	return strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
}
