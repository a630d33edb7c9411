// Package kafka forwards audit entries to a Kafka topic, keyed by guild so a
// guild's trail stays ordered within one partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "counsel/pkg/platform/audit"
)

const HeaderAction = "audit-action"

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// NewClient builds a franz-go client for the given seed brokers.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// Append produces the entry and waits for the broker acknowledgement.
func (p *Publisher) Append(ctx context.Context, entry audit.Entry) error {
	rec, err := Record(p.topic, entry)
	if err != nil {
		return err
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

// Record encodes an entry as a JSON Kafka record.
func Record(topic string, entry audit.Entry) (*kgo.Record, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal audit entry: %w", err)
	}
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(entry.GuildID),
		Value:     payload,
		Timestamp: entry.Timestamp,
		Headers: []kgo.RecordHeader{
			{Key: HeaderAction, Value: []byte(entry.Action)},
		},
	}, nil
}
