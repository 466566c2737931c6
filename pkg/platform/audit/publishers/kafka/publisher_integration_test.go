//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/kafka"
	"docverify/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) TestEmitProducesKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "verifications-" + uuid.NewString()[:8]

	pub, err := kafka.New(ctx, kafka.Config{
		Brokers:     s.broker.Brokers,
		Topic:       topic,
		CreateTopic: true,
		Partitions:  1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	defer pub.Close()

	event := audit.Event{
		ID:              uuid.New(),
		Type:            audit.EventVerificationCompleted,
		Timestamp:       time.Now().UTC().Truncate(time.Millisecond),
		ApplicationID:   "1001",
		Status:          "verified",
		ConfidenceScore: 100,
		AutoApproved:    true,
	}
	s.Require().NoError(pub.Emit(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	s.Equal("1001", string(records[0].Key))
	var decoded audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &decoded))
	s.Equal(event.ID, decoded.ID)
	s.Equal(event.Status, decoded.Status)
}

func (s *KafkaPublisherSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := kgo.NewClient(kgo.SeedBrokers(s.broker.Brokers...))
	s.Require().NoError(err)
	defer client.Close()

	topic := "bootstrap-" + uuid.NewString()[:8]
	s.Require().NoError(kafka.EnsureTopic(ctx, client, topic, 1, 1))
	s.Require().NoError(kafka.EnsureTopic(ctx, client, topic, 1, 1))
}
