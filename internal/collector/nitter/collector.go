// Package nitter collects tweets about a film through the unofficial mirror
// network: candidate front-ends are probed in order, the first live one is
// pinned for the whole run, and search results are paginated with the
// mirror's opaque cursor token.
package nitter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/fetch"
	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/htmlx"
	"github.com/filmbuzz/harvester/internal/metrics"
	"github.com/filmbuzz/harvester/internal/pace"
)

const source = "nitter"

// ErrNoViableMirror is returned when every configured mirror fails its
// liveness probe. Terminal for the run, never retried.
var ErrNoViableMirror = errors.New("no viable mirror")

var cursorPattern = regexp.MustCompile(`cursor=([^&"]+)`)

// Tweet text lives in .tweet-content on current mirrors; older deployments
// wrap items in .tweet-body instead of .timeline-item.
var tweetStrategies = []htmlx.Strategy{
	{Name: "timeline", ItemSelector: ".timeline .timeline-item", TextSelector: ".tweet-content"},
	{Name: "legacy", ItemSelector: ".tweet-body", TextSelector: ".tweet-content"},
}

// Config captures the collector's immutable inputs. The mirror list is
// passed in at construction so tests can substitute fixtures.
type Config struct {
	Mirrors      []string
	MaxPages     int
	ProbeTimeout time.Duration
}

// Collector implements harvest.Collector against the mirror network.
type Collector struct {
	cfg     Config
	fetcher *fetch.Fetcher
	prober  *fetch.Fetcher
	pacer   *pace.Pacer
	logger  *zap.Logger
}

// New builds a Collector. The prober uses its own bounded timeout so a
// hanging mirror cannot stall discovery.
func New(cfg Config, fetcher, prober *fetch.Fetcher, pacer *pace.Pacer, logger *zap.Logger) *Collector {
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		prober:  prober,
		pacer:   pacer,
		logger:  logger,
	}
}

// Source returns the collector's source name.
func (c *Collector) Source() string { return source }

// Collect pins the first live mirror, then pages through tweet search
// results. All tweets land in a single synthetic discussion unit.
func (c *Collector) Collect(ctx context.Context, query string) (*harvest.Result, error) {
	mirror, err := c.findLiveMirror(ctx)
	if err != nil {
		return nil, err
	}

	tweets := c.search(ctx, mirror, query)
	result := harvest.NewResult()
	if len(tweets) == 0 {
		c.logger.Warn("no tweets found", zap.String("query", query))
		return result, nil
	}
	result.Add(fmt.Sprintf("Twitter Search: %s", query), tweets...)
	metrics.CommentsHarvested.WithLabelValues(source).Add(float64(len(tweets)))
	return result, nil
}

// findLiveMirror probes candidates in order and pins the first that answers
// its root with a success status. Probing happens once per run; a pinned
// mirror that degrades later ends pagination rather than re-probing.
func (c *Collector) findLiveMirror(ctx context.Context) (string, error) {
	for _, mirror := range c.cfg.Mirrors {
		probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		_, err := c.prober.Get(probeCtx, mirror)
		cancel()
		if err != nil {
			c.logger.Info("mirror dead, trying next",
				zap.String("mirror", mirror), zap.Error(err))
			continue
		}
		c.logger.Info("mirror pinned", zap.String("mirror", mirror))
		return mirror, nil
	}
	return "", fmt.Errorf("probed %d mirrors: %w", len(c.cfg.Mirrors), ErrNoViableMirror)
}

// search pages through /search results on the pinned mirror, threading the
// cursor extracted from each page's "show more" link. Stops on the page
// ceiling, a missing cursor, or an empty page.
func (c *Collector) search(ctx context.Context, mirror, query string) []string {
	var tweets []string
	cursor := ""

	for page := 0; page < c.cfg.MaxPages; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return tweets
		}

		var body []byte
		err := c.pacer.RetryOnThrottle(ctx, func() error {
			metrics.Requests.WithLabelValues(source).Inc()
			p, err := c.fetcher.Get(ctx, searchURL(mirror, query, cursor))
			if err != nil {
				return err
			}
			body = p.Body
			return nil
		})
		if err != nil {
			metrics.RequestErrors.WithLabelValues(source).Inc()
			c.logger.Warn("search page fetch failed, keeping partial results",
				zap.Int("page", page+1), zap.Error(err))
			return tweets
		}
		metrics.PagesFetched.WithLabelValues(source).Inc()

		doc, err := htmlx.Parse(body)
		if err != nil {
			c.logger.Warn("search page unparseable", zap.Int("page", page+1), zap.Error(err))
			return tweets
		}
		items, strategy := htmlx.ExtractFirst(doc, tweetStrategies)
		if len(items) == 0 {
			c.logger.Info("empty page, stopping", zap.Int("page", page+1))
			return tweets
		}
		tweets = append(tweets, items...)
		c.logger.Debug("page parsed",
			zap.Int("page", page+1),
			zap.Int("tweets", len(items)),
			zap.String("strategy", strategy))

		cursor = nextCursor(doc)
		if cursor == "" {
			c.logger.Info("no cursor on page, stopping", zap.Int("page", page+1))
			return tweets
		}
	}
	return tweets
}

// nextCursor pulls the continuation token out of the last "show more" link.
// The first such link on a page is "load newest" and carries no cursor.
func nextCursor(doc *goquery.Document) string {
	href, ok := doc.Find(".show-more a").Last().Attr("href")
	if !ok {
		return ""
	}
	m := cursorPattern.FindStringSubmatch(href)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func searchURL(mirror, query, cursor string) string {
	params := url.Values{}
	params.Set("f", "tweets")
	params.Set("q", query)
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return mirror + "/search?" + params.Encode()
}
