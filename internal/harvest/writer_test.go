package harvest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryBlobStore records PutObject calls for inspection.
type memoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (s *memoryBlobStore) PutObject(_ context.Context, path string, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = append([]byte(nil), data...)
	return "mem://" + path, nil
}

func TestWriterWritesDatedArtifact(t *testing.T) {
	t.Parallel()

	store := newMemoryBlobStore()
	w := NewWriter(store, zap.NewNop())
	w.now = func() time.Time { return time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC) }

	result := NewResult()
	result.Add("Sinners", "stunning", "overrated")

	uri, artifact, err := w.Write(context.Background(), "letterboxd", "Sinners", result)
	require.NoError(t, err)
	require.Equal(t, "mem://letterboxd/letterboxd_Sinners_2026-02-20.json", uri)
	require.Equal(t, 2, artifact.TotalComments)
	require.Equal(t, 1, artifact.VideoCount)

	payload := store.objects["letterboxd/letterboxd_Sinners_2026-02-20.json"]
	require.NotNil(t, payload)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, "Sinners", decoded["query"])
}

func TestWriterSkipsEmptyRuns(t *testing.T) {
	t.Parallel()

	store := newMemoryBlobStore()
	w := NewWriter(store, zap.NewNop())

	uri, artifact, err := w.Write(context.Background(), "nitter", "Sinners", NewResult())
	require.NoError(t, err)
	require.Empty(t, uri)
	require.Zero(t, artifact.TotalComments)
	require.Empty(t, store.objects, "empty runs must not write artifacts")
}

func TestWriterSameDayOverwrite(t *testing.T) {
	t.Parallel()

	store := newMemoryBlobStore()
	w := NewWriter(store, zap.NewNop())
	w.now = func() time.Time { return time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC) }

	first := NewResult()
	first.Add("Sinners", "a")
	_, _, err := w.Write(context.Background(), "letterboxd", "Sinners", first)
	require.NoError(t, err)

	second := NewResult()
	second.Add("Sinners", "b", "c")
	_, _, err = w.Write(context.Background(), "letterboxd", "Sinners", second)
	require.NoError(t, err)

	require.Len(t, store.objects, 1, "same day + same query collides into one file")
}
