package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/collector/letterboxd"
	"github.com/filmbuzz/harvester/internal/collector/nitter"
	"github.com/filmbuzz/harvester/internal/collector/reddit"
	"github.com/filmbuzz/harvester/internal/collector/youtube"
	"github.com/filmbuzz/harvester/internal/config"
	"github.com/filmbuzz/harvester/internal/fetch"
	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/pace"
)

func newYouTubeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "youtube [query]",
		Short: "Harvest comments from the YouTube Data API",
		Long: `Searches YouTube for videos about the film and pages through each
video's comment threads, splitting the global comment target across the
discovered videos. Without an API key the run uses the offline fixture set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context(), *cfg, args, func(logger *zap.Logger) harvest.Collector {
				return youtube.New(youtube.Config{
					BaseURL:       cfg.YouTube.BaseURL,
					APIKey:        cfg.YouTube.APIKey,
					MaxVideos:     cfg.YouTube.MaxVideos,
					PageSize:      cfg.YouTube.PageSize,
					CommentTarget: cfg.Harvest.CommentTarget,
					Timeout:       cfg.HTTPTimeout(),
					Offline:       cfg.OfflineYouTube(),
				}, defaultPacer(cfg), logger.Named("youtube"))
			})
		},
	}
}

func newRedditCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reddit [query]",
		Short: "Harvest comment trees from topic subreddits",
		Long: `Searches each configured subreddit for posts about the film, keeps
the highest-scoring posts that have replies, and flattens every thread's
nested reply tree into reading order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context(), *cfg, args, func(logger *zap.Logger) harvest.Collector {
				return reddit.New(reddit.Config{
					BaseURL:     cfg.Reddit.BaseURL,
					Subreddits:  cfg.Reddit.Subreddits,
					SearchLimit: cfg.Reddit.SearchLimit,
					TopPosts:    cfg.Reddit.TopPosts,
					UserAgent:   cfg.Reddit.UserAgent,
					Timeout:     cfg.HTTPTimeout(),
				}, defaultPacer(cfg), logger.Named("reddit"))
			})
		},
	}
}

func newNitterCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "nitter [query]",
		Short: "Harvest tweets through the Nitter mirror network",
		Long: `Probes the configured mirror list for a live front-end, pins the
first responder, and pages through tweet search results with the mirror's
cursor token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context(), *cfg, args, func(logger *zap.Logger) harvest.Collector {
				logger = logger.Named("nitter")
				fetchCfg := fetch.Config{
					UserAgent: cfg.HTTP.UserAgent,
					Timeout:   cfg.HTTPTimeout(),
				}
				probeCfg := fetch.Config{
					UserAgent: cfg.HTTP.UserAgent,
					Timeout:   time.Duration(cfg.Nitter.ProbeTimeoutSeconds) * time.Second,
				}
				return nitter.New(nitter.Config{
					Mirrors:      cfg.Nitter.Mirrors,
					MaxPages:     cfg.Nitter.MaxPages,
					ProbeTimeout: probeCfg.Timeout,
				}, fetch.New(fetchCfg, logger), fetch.New(probeCfg, logger), defaultPacer(cfg), logger)
			})
		},
	}
}

func newLetterboxdCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "letterboxd [query]",
		Short: "Harvest reviews from the film's review pages",
		Long: `Walks the numbered review pages for the film's slug, falling back
to an alternate selector set when the primary markup yields nothing, and
stops at the first page without reviews or a next link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context(), *cfg, args, func(logger *zap.Logger) harvest.Collector {
				logger = logger.Named("letterboxd")
				fetcher := fetch.New(fetch.Config{
					UserAgent: cfg.HTTP.UserAgent,
					Timeout:   cfg.HTTPTimeout(),
				}, logger)
				delay := secondsToDuration(cfg.Pace.LetterboxdDelaySeconds)
				pacer := pace.New(delay, secondsToDuration(cfg.Pace.ThrottleBackoffSeconds))
				return letterboxd.New(letterboxd.Config{
					BaseURL:  cfg.Letterboxd.BaseURL,
					MaxPages: cfg.Letterboxd.MaxPages,
					Slugs:    cfg.Letterboxd.Slugs,
				}, fetcher, pacer, logger)
			})
		},
	}
}

func defaultPacer(cfg *config.Config) *pace.Pacer {
	return pace.New(
		secondsToDuration(cfg.Pace.DelaySeconds),
		secondsToDuration(cfg.Pace.ThrottleBackoffSeconds),
	)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
