package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/storage"
)

// Writer normalizes a run's result and persists it through a blob store.
type Writer struct {
	store  storage.BlobStore
	logger *zap.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewWriter builds a Writer on top of the given blob store.
func NewWriter(store storage.BlobStore, logger *zap.Logger) *Writer {
	return &Writer{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Write normalizes result and writes one dated artifact under the source's
// directory. A run with zero comments writes nothing and returns an empty
// URI: empty artifacts are never persisted.
func (w *Writer) Write(ctx context.Context, source, query string, result *Result) (string, Artifact, error) {
	now := w.now()
	artifact := Normalize(query, result, now)

	if artifact.TotalComments == 0 {
		w.logger.Warn("no comments harvested, skipping artifact write",
			zap.String("source", source),
			zap.String("query", query))
		return "", artifact, nil
	}

	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", artifact, fmt.Errorf("marshal artifact: %w", err)
	}

	objectPath := path.Join(source, ArtifactFileName(source, query, now))
	uri, err := w.store.PutObject(ctx, objectPath, "application/json", payload)
	if err != nil {
		return "", artifact, fmt.Errorf("write artifact: %w", err)
	}

	w.logger.Info("artifact written",
		zap.String("uri", uri),
		zap.Int("total_comments", artifact.TotalComments),
		zap.Int("video_count", artifact.VideoCount))
	return uri, artifact, nil
}
