// Package letterboxd collects film reviews by walking the numbered pages of
// a film's review listing. Parsing is two-tiered: a primary selector set for
// the current markup, and an alternate set covering layout variants, tried
// in order until one yields items.
package letterboxd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/fetch"
	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/htmlx"
	"github.com/filmbuzz/harvester/internal/metrics"
	"github.com/filmbuzz/harvester/internal/pace"
)

const source = "letterboxd"

var reviewStrategies = []htmlx.Strategy{
	{Name: "film-detail", ItemSelector: "li.film-detail", TextSelector: ".body-text"},
	{Name: "review-card", ItemSelector: "div.review", TextSelector: ".review-text"},
}

// Config captures the collector's immutable inputs. The slug table is
// passed in at construction so tests can substitute fixtures.
type Config struct {
	BaseURL  string
	MaxPages int
	Slugs    map[string]string
}

// Collector implements harvest.Collector against the review site.
type Collector struct {
	cfg     Config
	fetcher *fetch.Fetcher
	pacer   *pace.Pacer
	logger  *zap.Logger
}

// New builds a Collector.
func New(cfg Config, fetcher *fetch.Fetcher, pacer *pace.Pacer, logger *zap.Logger) *Collector {
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		pacer:   pacer,
		logger:  logger,
	}
}

// Source returns the collector's source name.
func (c *Collector) Source() string { return source }

// Collect walks the film's review pages. All reviews land in one discussion
// unit labeled with the film title, standing in for a single pseudo-video.
func (c *Collector) Collect(ctx context.Context, query string) (*harvest.Result, error) {
	slug := c.resolveSlug(query)
	c.logger.Info("resolved film slug", zap.String("query", query), zap.String("slug", slug))

	reviews := c.paginate(ctx, slug)
	result := harvest.NewResult()
	if len(reviews) == 0 {
		c.logger.Warn("no reviews found", zap.String("query", query), zap.String("slug", slug))
		return result, nil
	}
	result.Add(query, reviews...)
	metrics.CommentsHarvested.WithLabelValues(source).Add(float64(len(reviews)))
	return result, nil
}

// resolveSlug consults the static title table first, then falls back to the
// lower-case whitespace-to-hyphen transform for unmapped titles.
func (c *Collector) resolveSlug(title string) string {
	if slug, ok := c.cfg.Slugs[title]; ok {
		return slug
	}
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// paginate fetches pages 1..MaxPages. One precedence rule governs
// continuation: the page must have yielded at least one review AND carry a
// next-page link; either missing is a natural end, not an error.
func (c *Collector) paginate(ctx context.Context, slug string) []string {
	var reviews []string

	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return reviews
		}

		var body []byte
		err := c.pacer.RetryOnThrottle(ctx, func() error {
			metrics.Requests.WithLabelValues(source).Inc()
			p, err := c.fetcher.Get(ctx, c.pageURL(slug, page))
			if err != nil {
				return err
			}
			body = p.Body
			return nil
		})
		if err != nil {
			metrics.RequestErrors.WithLabelValues(source).Inc()
			c.logger.Warn("review page fetch failed, keeping partial results",
				zap.Int("page", page), zap.Error(err))
			return reviews
		}
		metrics.PagesFetched.WithLabelValues(source).Inc()

		doc, err := htmlx.Parse(body)
		if err != nil {
			c.logger.Warn("review page unparseable", zap.Int("page", page), zap.Error(err))
			return reviews
		}

		items, strategy := htmlx.ExtractFirst(doc, reviewStrategies)
		reviews = append(reviews, items...)
		hasNext := doc.Find("a.next").Length() > 0
		c.logger.Debug("page parsed",
			zap.Int("page", page),
			zap.Int("reviews", len(items)),
			zap.String("strategy", strategy),
			zap.Bool("has_next", hasNext))

		if len(items) == 0 || !hasNext {
			c.logger.Info("no more pages", zap.Int("page", page))
			return reviews
		}
	}
	return reviews
}

func (c *Collector) pageURL(slug string, page int) string {
	if page == 1 {
		return fmt.Sprintf("%s/film/%s/reviews/", c.cfg.BaseURL, slug)
	}
	return fmt.Sprintf("%s/film/%s/reviews/page/%d/", c.cfg.BaseURL, slug, page)
}
