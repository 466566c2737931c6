// Package kafka publishes audit events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "docverify/pkg/platform/audit"
)

// Config holds producer settings.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string

	// CreateTopic creates the topic on startup if it is missing.
	CreateTopic       bool
	Partitions        int32
	ReplicationFactor int16
}

// Publisher writes events keyed by application ID so per-application order
// is kept within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the cluster and optionally ensures the topic exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	if cfg.CreateTopic {
		if err := EnsureTopic(ctx, client, cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
			client.Close()
			return nil, err
		}
	}

	logger.InfoContext(ctx, "connected to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// EnsureTopic creates topic unless it already exists. Non-positive partitions
// or replication factor use the broker defaults.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	if partitions <= 0 {
		partitions = -1
	}
	if replicationFactor <= 0 {
		replicationFactor = -1
	}
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Emit synchronously produces one event and waits for the broker ack.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
		Timestamp: event.Timestamp,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"application_id", event.ApplicationID,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
