package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filmbuzz/harvester/internal/publish"
)

func TestPublisherRecordsEvents(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "harvest-complete", publish.Event{
		RunID:  "run-1",
		Source: "reddit",
		Query:  "Sinners",
	})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	events := p.Events()
	require.Len(t, events, 1)
	require.Equal(t, "harvest-complete", events[0].Topic)
	require.Equal(t, "reddit", events[0].Event.Source)
}
