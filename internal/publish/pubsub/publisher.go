// Package pubsub implements a Google Cloud Pub/Sub publisher for
// run-completion events.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/filmbuzz/harvester/internal/publish"
)

// Publisher wraps a Pub/Sub client.
type Publisher struct {
	client *pubsub.Client
}

// New creates a Publisher using the provided client.
func New(client *pubsub.Client) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	return &Publisher{client: client}, nil
}

// Publish marshals the event to JSON and publishes it to the topic,
// blocking until the server acknowledges.
func (p *Publisher) Publish(ctx context.Context, topic string, event publish.Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	result := p.client.Topic(topic).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"source": event.Source,
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish event: %w", err)
	}
	return id, nil
}
