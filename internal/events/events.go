// Package events publishes transaction lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event is the envelope written to every broker. Key groups events of the
// same transaction so brokers that partition by key keep them ordered.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func (e Event) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s event: %w", e.Type, err)
	}

	return b, nil
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type Config struct {
	Driver       string
	KafkaBrokers []string
	Topic        string
	NatsURL      string
	RabbitURL    string
}

// New returns the publisher for cfg.Driver: kafka, nats, rabbitmq or none.
func New(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka driver requires at least one broker")
		}

		return NewKafka(cfg.KafkaBrokers, cfg.Topic), nil
	case "nats":
		return NewNATS(cfg.NatsURL, cfg.Topic)
	case "rabbitmq":
		return NewRabbitMQ(cfg.RabbitURL, cfg.Topic)
	}

	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
