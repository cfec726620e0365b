// Package reddit collects discussion threads by searching a fixed list of
// topic subreddits, ranking the merged results by score, and flattening each
// thread's nested reply tree into reading order.
package reddit

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/metrics"
	"github.com/filmbuzz/harvester/internal/pace"
)

const source = "reddit"

// Config captures the collector's immutable inputs. The subreddit list is
// passed in at construction so tests can substitute fixtures.
type Config struct {
	BaseURL     string
	Subreddits  []string
	SearchLimit int
	TopPosts    int
	UserAgent   string
	Timeout     time.Duration
}

// Collector implements harvest.Collector against Reddit's public JSON API.
type Collector struct {
	cfg    Config
	client *resty.Client
	pacer  *pace.Pacer
	logger *zap.Logger
}

// Post is one ranked search result.
type Post struct {
	ID           string
	Title        string
	Score        int
	CommentCount int
	Permalink    string
	Subreddit    string
}

// New builds a Collector. Reddit requires a descriptive User-Agent; requests
// without one are throttled aggressively.
func New(cfg Config, pacer *pace.Pacer, logger *zap.Logger) *Collector {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	return &Collector{
		cfg:    cfg,
		client: client,
		pacer:  pacer,
		logger: logger,
	}
}

// Source returns the collector's source name.
func (c *Collector) Source() string { return source }

// Collect searches every configured subreddit, keeps the most popular posts
// that actually have replies, and harvests each thread's flattened comments.
func (c *Collector) Collect(ctx context.Context, query string) (*harvest.Result, error) {
	posts := c.searchAll(ctx, query)
	result := harvest.NewResult()
	if len(posts) == 0 {
		c.logger.Warn("no posts found", zap.String("query", query))
		return result, nil
	}

	for _, post := range posts {
		comments := c.getThreadComments(ctx, post)
		if len(comments) == 0 {
			continue
		}
		result.Add(post.Title, comments...)
		metrics.CommentsHarvested.WithLabelValues(source).Add(float64(len(comments)))
	}
	return result, nil
}

// searchAll merges per-subreddit search results, sorts by score descending,
// drops posts without replies, and truncates to the configured top-N. A
// failed subreddit search is logged and skipped; the others still count.
func (c *Collector) searchAll(ctx context.Context, query string) []Post {
	var merged []Post
	for _, sub := range c.cfg.Subreddits {
		posts, err := c.searchSubreddit(ctx, sub, query)
		if err != nil {
			metrics.RequestErrors.WithLabelValues(source).Inc()
			c.logger.Warn("subreddit search failed",
				zap.String("subreddit", sub), zap.Error(err))
			continue
		}
		merged = append(merged, posts...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	filtered := merged[:0]
	for _, p := range merged {
		if p.CommentCount > 0 {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > c.cfg.TopPosts {
		filtered = filtered[:c.cfg.TopPosts]
	}
	c.logger.Info("subreddit search complete",
		zap.String("query", query), zap.Int("posts", len(filtered)))
	return filtered
}

func (c *Collector) searchSubreddit(ctx context.Context, subreddit, query string) ([]Post, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	var out listing
	err := c.pacer.RetryOnThrottle(ctx, func() error {
		metrics.Requests.WithLabelValues(source).Inc()
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":           query,
				"restrict_sr": "1",
				"sort":        "relevance",
				"limit":       strconv.Itoa(c.cfg.SearchLimit),
			}).
			SetResult(&out).
			Get(fmt.Sprintf("/r/%s/search.json", subreddit))
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues(source).Inc()

	posts := make([]Post, 0, len(out.Data.Children))
	for _, child := range out.Data.Children {
		posts = append(posts, Post{
			ID:           child.Data.ID,
			Title:        child.Data.Title,
			Score:        child.Data.Score,
			CommentCount: child.Data.NumComments,
			Permalink:    child.Data.Permalink,
			Subreddit:    subreddit,
		})
	}
	return posts, nil
}

// getThreadComments fetches one thread's full nested reply structure and
// flattens it. Failures degrade to an empty slice; the run moves on to the
// next thread.
func (c *Collector) getThreadComments(ctx context.Context, post Post) []string {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil
	}

	var out []listing
	err := c.pacer.RetryOnThrottle(ctx, func() error {
		metrics.Requests.WithLabelValues(source).Inc()
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"limit": "100",
				"depth": "10",
			}).
			SetResult(&out).
			Get(fmt.Sprintf("/r/%s/comments/%s.json", post.Subreddit, post.ID))
		return checkResponse(resp, err)
	})
	if err != nil {
		metrics.RequestErrors.WithLabelValues(source).Inc()
		c.logger.Warn("thread fetch failed",
			zap.String("post_id", post.ID),
			zap.String("title", post.Title),
			zap.Error(err))
		return nil
	}
	metrics.PagesFetched.WithLabelValues(source).Inc()

	// Element 0 is the post itself; element 1 holds the comment forest.
	if len(out) < 2 {
		return nil
	}
	return flatten(out[1].Data.Children)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		metrics.ThrottleHits.WithLabelValues(source).Inc()
		return fmt.Errorf("%s: %w", resp.Request.URL, pace.ErrThrottled)
	case resp.IsError():
		return fmt.Errorf("%s: unexpected status %d", resp.Request.URL, resp.StatusCode())
	}
	return nil
}
