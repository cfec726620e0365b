// Package youtube collects comments through the quota-metered YouTube Data
// API: one capped search call, then paginated commentThreads fetches with a
// hard page ceiling so a looping continuation token can never drain quota.
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/metrics"
	"github.com/filmbuzz/harvester/internal/pace"
)

const source = "youtube"

// Config captures the collector's immutable inputs.
type Config struct {
	BaseURL       string
	APIKey        string
	MaxVideos     int
	PageSize      int
	CommentTarget int
	Timeout       time.Duration
	// Offline switches every network call for the fixture dataset. Set when
	// the API key is missing or a placeholder.
	Offline bool
}

// Collector implements harvest.Collector against the YouTube Data API.
type Collector struct {
	cfg    Config
	client *resty.Client
	pacer  *pace.Pacer
	logger *zap.Logger
}

// Video is one search result.
type Video struct {
	ID      string
	Title   string
	Channel string
}

// New builds a Collector.
func New(cfg Config, pacer *pace.Pacer, logger *zap.Logger) *Collector {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
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

// Collect searches for videos about query and harvests comments from each,
// splitting the global comment target evenly across discovered videos.
func (c *Collector) Collect(ctx context.Context, query string) (*harvest.Result, error) {
	videos, err := c.searchVideos(ctx, query)
	if err != nil {
		return nil, err
	}
	result := harvest.NewResult()
	if len(videos) == 0 {
		c.logger.Warn("no videos found", zap.String("query", query))
		return result, nil
	}

	perVideo := ceilDiv(c.cfg.CommentTarget, len(videos))
	for _, video := range videos {
		comments := c.getComments(ctx, video.ID, perVideo)
		if len(comments) == 0 {
			c.logger.Info("no comments for video",
				zap.String("video_id", video.ID), zap.String("title", video.Title))
			continue
		}
		result.Add(video.Title, comments...)
		metrics.CommentsHarvested.WithLabelValues(source).Add(float64(len(comments)))
	}
	return result, nil
}

// searchVideos issues the single capped search call. Offline mode skips the
// network entirely and returns the fixture marker video.
func (c *Collector) searchVideos(ctx context.Context, query string) ([]Video, error) {
	if c.cfg.Offline {
		c.logger.Warn("no API key configured, using offline fixture dataset")
		return []Video{fixtureVideo(query)}, nil
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	var out searchResponse
	err := c.pacer.RetryOnThrottle(ctx, func() error {
		metrics.Requests.WithLabelValues(source).Inc()
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"part":       "snippet",
				"q":          query,
				"key":        c.cfg.APIKey,
				"type":       "video",
				"maxResults": strconv.Itoa(c.cfg.MaxVideos),
			}).
			SetResult(&out).
			Get("/search")
		return checkResponse(resp, err)
	})
	if err != nil {
		metrics.RequestErrors.WithLabelValues(source).Inc()
		return nil, fmt.Errorf("search videos: %w", err)
	}

	videos := make([]Video, 0, len(out.Items))
	for _, item := range out.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:      item.ID.VideoID,
			Title:   item.Snippet.Title,
			Channel: item.Snippet.ChannelTitle,
		})
	}
	c.logger.Info("video search complete",
		zap.String("query", query), zap.Int("videos", len(videos)))
	return videos, nil
}

// getComments pages through commentThreads until the target count is
// reached, the continuation token runs out, or the page ceiling is hit.
// Any page failure returns whatever accumulated so far.
func (c *Collector) getComments(ctx context.Context, videoID string, target int) []string {
	if c.cfg.Offline {
		return fixtureComments(target)
	}

	pageLimit := ceilDiv(target, c.cfg.PageSize) + 1
	var comments []string
	pageToken := ""

	for page := 0; page < pageLimit; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return comments
		}

		var out commentThreadsResponse
		err := c.pacer.RetryOnThrottle(ctx, func() error {
			metrics.Requests.WithLabelValues(source).Inc()
			req := c.client.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"part":       "snippet",
					"videoId":    videoID,
					"key":        c.cfg.APIKey,
					"maxResults": strconv.Itoa(c.cfg.PageSize),
					"textFormat": "plainText",
				}).
				SetResult(&out)
			if pageToken != "" {
				req.SetQueryParam("pageToken", pageToken)
			}
			resp, err := req.Get("/commentThreads")
			return checkResponse(resp, err)
		})
		if err != nil {
			metrics.RequestErrors.WithLabelValues(source).Inc()
			c.logger.Warn("comment page fetch failed, keeping partial results",
				zap.String("video_id", videoID),
				zap.Int("collected", len(comments)),
				zap.Error(err))
			return comments
		}
		metrics.PagesFetched.WithLabelValues(source).Inc()

		for _, item := range out.Items {
			text := item.Snippet.TopLevelComment.Snippet.TextDisplay
			if text != "" {
				comments = append(comments, text)
			}
		}

		if len(comments) >= target || out.NextPageToken == "" {
			break
		}
		pageToken = out.NextPageToken
	}
	if len(comments) > target {
		comments = comments[:target]
	}
	return comments
}

// checkResponse maps an API response onto the shared error taxonomy.
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

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// API response shapes, trimmed to the fields the collector reads.

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type commentThreadsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay string `json:"textDisplay"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}
