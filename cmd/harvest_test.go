package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/config"
	"github.com/filmbuzz/harvester/internal/harvest"
)

type stubCollector struct {
	result *harvest.Result
	err    error
	query  string
}

func (s *stubCollector) Source() string { return "stub" }

func (s *stubCollector) Collect(_ context.Context, query string) (*harvest.Result, error) {
	s.query = query
	return s.result, s.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Harvest.ResultsDir = t.TempDir()
	return cfg
}

func buildStub(collector *stubCollector) func(*zap.Logger) harvest.Collector {
	return func(*zap.Logger) harvest.Collector { return collector }
}

func TestRunHarvestWritesLocalArtifact(t *testing.T) {
	cfg := testConfig(t)
	result := harvest.NewResult()
	result.Add("Sinners review thread", "loved it", "score was incredible")
	collector := &stubCollector{result: result}

	err := runHarvest(context.Background(), cfg, []string{"Sinners"}, buildStub(collector))
	require.NoError(t, err)
	assert.Equal(t, "Sinners", collector.query)

	entries, err := os.ReadDir(filepath.Join(cfg.Harvest.ResultsDir, "stub"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "stub_Sinners_")
}

func TestRunHarvestFallsBackToDefaultQuery(t *testing.T) {
	cfg := testConfig(t)
	result := harvest.NewResult()
	result.Add("thread", "a comment")
	collector := &stubCollector{result: result}

	require.NoError(t, runHarvest(context.Background(), cfg, nil, buildStub(collector)))
	assert.Equal(t, cfg.Harvest.DefaultQuery, collector.query)
}

func TestRunHarvestSkipsEmptyRun(t *testing.T) {
	cfg := testConfig(t)
	collector := &stubCollector{result: harvest.NewResult()}

	require.NoError(t, runHarvest(context.Background(), cfg, []string{"Sinners"}, buildStub(collector)))

	_, err := os.Stat(filepath.Join(cfg.Harvest.ResultsDir, "stub"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunHarvestPropagatesCollectError(t *testing.T) {
	cfg := testConfig(t)
	collector := &stubCollector{err: errors.New("mirror down")}

	err := runHarvest(context.Background(), cfg, []string{"Sinners"}, buildStub(collector))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror down")
}
