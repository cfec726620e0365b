// Package fetch implements single-page HTML retrieval using the Colly
// collector, with a browser-profile transport to keep the block rate down.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/pace"
)

// Terminal per-request failure classes. Throttles are pace.ErrThrottled so
// the shared retry helper can recognize them.
var (
	ErrBlocked  = errors.New("blocked by source")
	ErrNotFound = errors.New("page not found")
)

// Page is the result of one fetch.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Config controls fetcher behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher retrieves single pages via a shared base collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	c := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(cloudflarebp.AddCloudFlareByPass(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}))
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Get fetches one URL. Non-success statuses map onto the error taxonomy:
// 429 is pace.ErrThrottled, 403 ErrBlocked, 404 ErrNotFound; everything else
// is a plain error terminal for this request.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	collector := f.baseCollector.Clone()
	var (
		page     Page
		fetchErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	collector.OnResponse(func(r *colly.Response) {
		page = Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = classify(rawURL, status, err)
	})

	if err := collector.Visit(rawURL); err != nil {
		return Page{}, classify(rawURL, 0, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if fetchErr != nil {
		f.logger.Debug("page fetch failed",
			zap.String("url", rawURL), zap.Error(fetchErr))
		return Page{}, fetchErr
	}
	if page.StatusCode == 0 {
		return Page{}, fmt.Errorf("fetch %s: no response", rawURL)
	}
	return page, nil
}

func classify(url string, status int, err error) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("fetch %s: %w", url, pace.ErrThrottled)
	case http.StatusForbidden:
		return fmt.Errorf("fetch %s: %w", url, ErrBlocked)
	case http.StatusNotFound:
		return fmt.Errorf("fetch %s: %w", url, ErrNotFound)
	}
	if err == nil {
		err = errors.New("unknown fetch error")
	}
	return fmt.Errorf("fetch %s: %w", url, err)
}
