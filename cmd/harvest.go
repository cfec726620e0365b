package cmd

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/config"
	"github.com/filmbuzz/harvester/internal/harvest"
	"github.com/filmbuzz/harvester/internal/publish"
	pub "github.com/filmbuzz/harvester/internal/publish/pubsub"
	"github.com/filmbuzz/harvester/internal/storage"
	"github.com/filmbuzz/harvester/internal/storage/gcs"
	"github.com/filmbuzz/harvester/internal/storage/local"
)

// runHarvest drives one collect-normalize-write cycle for a single source.
// The collector is built through a closure so it shares the run-scoped
// logger. A failed write is fatal; a failed publish only logs, since the
// artifact on disk is already usable.
func runHarvest(ctx context.Context, cfg config.Config, args []string, build func(*zap.Logger) harvest.Collector) error {
	query := cfg.Harvest.DefaultQuery
	if len(args) > 0 && args[0] != "" {
		query = args[0]
	}

	runID := uuid.NewString()
	base := zap.L().With(
		zap.String("run_id", runID),
		zap.String("query", query),
	)
	collector := build(base)
	logger := base.With(zap.String("source", collector.Source()))
	logger.Info("starting harvest")

	result, err := collector.Collect(ctx, query)
	if err != nil {
		return fmt.Errorf("collect %s: %w", collector.Source(), err)
	}

	store, closeStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeStore()

	uri, artifact, err := harvest.NewWriter(store, logger).Write(ctx, collector.Source(), query, result)
	if err != nil {
		return err
	}

	if uri != "" && cfg.PublishEnabled() {
		event := publish.Event{
			RunID:         runID,
			Source:        collector.Source(),
			Query:         query,
			ArtifactURI:   uri,
			TotalComments: artifact.TotalComments,
			VideoCount:    artifact.VideoCount,
			FetchedAt:     artifact.FetchedAt,
		}
		if msgID, err := publishEvent(ctx, cfg, event); err != nil {
			logger.Warn("publish run event failed", zap.Error(err))
		} else {
			logger.Info("run event published", zap.String("message_id", msgID))
		}
	}

	printSummary(artifact, uri)
	logger.Info("harvest complete",
		zap.Int("total_comments", artifact.TotalComments),
		zap.Int("video_count", artifact.VideoCount))
	return nil
}

// newBlobStore builds the configured artifact sink. The returned close func
// releases the GCS client when one was opened.
func newBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, func(), error) {
	switch cfg.Storage.Backend {
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcs.New(client, cfg.Storage.GCSBucket)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil
	default:
		store, err := local.New(cfg.Harvest.ResultsDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func publishEvent(ctx context.Context, cfg config.Config, event publish.Event) (string, error) {
	client, err := pubsub.NewClient(ctx, cfg.Publish.ProjectID)
	if err != nil {
		return "", fmt.Errorf("pubsub client: %w", err)
	}
	defer client.Close()

	publisher, err := pub.New(client)
	if err != nil {
		return "", err
	}
	return publisher.Publish(ctx, cfg.Publish.Topic, event)
}

func printSummary(artifact harvest.Artifact, uri string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Video / Thread", "Comments"})
	for _, unit := range artifact.Units {
		t.AppendRow(table.Row{unit.Label, len(unit.Comments)})
	}
	t.AppendFooter(table.Row{"Total", artifact.TotalComments})
	t.Render()

	if uri == "" {
		fmt.Println("No comments harvested; nothing written.")
		return
	}
	fmt.Printf("Artifact: %s\n", uri)
}
