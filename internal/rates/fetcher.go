package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"line-rate-bot/internal/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	defaultSourceURL = "https://rate.bot.com.tw/xrt?Lang=zh-TW"
	defaultCacheTTL  = 10 * time.Minute
	cacheKey         = "rates:board"
)

var (
	// ErrEmptyTable is returned when the page parsed but held no usable rate.
	ErrEmptyTable = errors.New("exchange table is empty")

	codePattern = regexp.MustCompile(`\(([A-Z]{3})\)`)
)

// Store is the cache used to share a fetched table across restarts.
type Store interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Config holds fetcher configuration.
type Config struct {
	SourceURL string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Fetcher downloads and parses the board rate page.
type Fetcher struct {
	logger    *slog.Logger
	sourceURL string
	http      *http.Client
	metrics   *metrics.Metrics
	cache     Store
	cacheTTL  time.Duration
}

// New creates a Fetcher. cache may be nil.
func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics, cache Store) *Fetcher {
	source := strings.TrimSpace(cfg.SourceURL)
	if source == "" {
		source = defaultSourceURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Fetcher{
		logger:    logger.With("component", "rates"),
		sourceURL: source,
		http:      &http.Client{Timeout: timeout},
		metrics:   metrics,
		cache:     cache,
		cacheTTL:  ttl,
	}
}

// Load returns the exchange table, from cache when available unless
// forceRefresh is set.
func (f *Fetcher) Load(ctx context.Context, forceRefresh bool) (Table, error) {
	if f.cache != nil && !forceRefresh {
		var cached Table
		ok, err := f.cache.GetJSON(ctx, cacheKey, &cached)
		switch {
		case err != nil:
			f.logger.Warn("read rate cache failed", "error", err)
			f.observe("cache", "error")
		case ok && len(cached) > 0:
			f.observe("cache", "ok")
			f.logger.Info("exchange table loaded from cache", "currencies", len(cached))
			return cached, nil
		default:
			f.observe("cache", "miss")
		}
	}

	table, err := f.fetch(ctx)
	if err != nil {
		f.observe("remote", "error")
		if f.metrics != nil {
			f.metrics.Errors.WithLabelValues("rates").Inc()
		}
		return nil, err
	}
	f.observe("remote", "ok")
	f.logger.Info("exchange table fetched", "source", f.sourceURL, "currencies", table.Codes())

	if f.cache != nil {
		if err := f.cache.SetJSON(ctx, cacheKey, table, f.cacheTTL); err != nil {
			f.logger.Warn("write rate cache failed", "error", err)
		}
	}
	return table, nil
}

func (f *Fetcher) fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "line-rate-bot/1.0")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rate page: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	table, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rate page: %w", err)
	}
	return table, nil
}

func (f *Fetcher) observe(source, status string) {
	if f.metrics != nil {
		f.metrics.RateFetches.WithLabelValues(source, status).Inc()
	}
}

// Parse reads the board rate HTML. Cash buy/sell prices are used; the spot
// columns stand in when a currency has no cash quote.
func Parse(r io.Reader) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := Table{}
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		currency := row.Find(`td[data-table="幣別"]`)
		label := strings.TrimSpace(currency.Find("div.visible-phone").First().Text())
		if label == "" {
			label = strings.TrimSpace(currency.Text())
		}
		m := codePattern.FindStringSubmatch(label)
		if m == nil {
			return
		}

		buy, buyText, okBuy := cell(row, "本行現金買入")
		sell, sellText, okSell := cell(row, "本行現金賣出")
		if !okBuy || !okSell {
			buy, buyText, okBuy = cell(row, "本行即期買入")
			sell, sellText, okSell = cell(row, "本行即期賣出")
		}
		if !okBuy || !okSell {
			return
		}
		table[m[1]] = Rate{Buy: buy, Sell: sell, BuyText: buyText, SellText: sellText}
	})

	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	return table, nil
}

func cell(row *goquery.Selection, column string) (decimal.Decimal, string, bool) {
	text := strings.TrimSpace(row.Find(`td[data-table="` + column + `"]`).First().Text())
	if text == "" || text == "-" {
		return decimal.Decimal{}, "", false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, "", false
	}
	return d, text, true
}
