package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"bank-ledger/internal/events"
)

const topic = "transaction_completed"

// Publisher writes committed-transaction events to Kafka, keyed by
// reference id so the two legs of a transfer land in one partition.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(event events.TransactionCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Key:   []byte(event.ReferenceID),
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
