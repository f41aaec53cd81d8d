package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (k *Kafka) Publish(ctx context.Context, evt Event) error {
	body, err := evt.Marshal()
	if err != nil {
		return err
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(evt.Key),
		Value:   body,
		Headers: []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	})
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", evt.Type, err)
	}

	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
