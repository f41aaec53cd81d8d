package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("photobox"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATS{conn: nc, subject: subject}, nil
}

// Publish sends evt on {subject}.{type}, e.g. photobox.transaction.transaction.created.
func (n *NATS) Publish(_ context.Context, evt Event) error {
	body, err := evt.Marshal()
	if err != nil {
		return err
	}

	if err := n.conn.Publish(n.subject+"."+evt.Type, body); err != nil {
		return fmt.Errorf("nats: publish %s: %w", evt.Type, err)
	}

	return nil
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
