package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// Stream and subject layout for dataset events.
const (
	DatasetStream        = "DRILLMAP_DATASETS"
	DatasetSubjectPrefix = "drillmap.dataset."
	DatasetSubjectAll    = DatasetSubjectPrefix + ">"
)

// DatasetSubject returns drillmap.dataset.<type>.<id>.
func DatasetSubject(eventType, datasetID string) string {
	return DatasetSubjectPrefix + eventType + "." + datasetID
}

// DatasetSubjectFilter returns a subscription subject for the given event
// type and dataset. Empty values match any token.
func DatasetSubjectFilter(eventType, datasetID string) string {
	if eventType == "" && datasetID == "" {
		return DatasetSubjectAll
	}
	if eventType == "" {
		eventType = "*"
	}
	if datasetID == "" {
		datasetID = "*"
	}
	return DatasetSubject(eventType, datasetID)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and makes sure the
// dataset stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      DatasetStream,
		Subjects:  []string{DatasetSubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishDatasetEvent publishes event on its type and dataset subject.
func (p *Publisher) PublishDatasetEvent(ctx context.Context, event *domain.DatasetEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(DatasetSubject(event.Type, event.DatasetID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for plain subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("drillmap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
