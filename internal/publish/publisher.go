// Package publish emits run-completion events so the downstream ingestion
// step can pick up freshly written artifacts.
package publish

import (
	"context"
	"time"
)

// Event describes one completed harvest run.
type Event struct {
	RunID         string    `json:"runId"`
	Source        string    `json:"source"`
	Query         string    `json:"query"`
	ArtifactURI   string    `json:"artifactUri"`
	TotalComments int       `json:"totalComments"`
	VideoCount    int       `json:"videoCount"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Publisher pushes completion events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) (string, error)
}
