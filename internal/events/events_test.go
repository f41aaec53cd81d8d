package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/photobox/internal/events"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     events.Config
		wantErr bool
	}{
		{name: "Default", cfg: events.Config{}},
		{name: "None", cfg: events.Config{Driver: "none"}},
		{name: "KafkaWithoutBrokers", cfg: events.Config{Driver: "kafka"}, wantErr: true},
		{name: "KafkaLazyConnect", cfg: events.Config{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, Topic: "t"}},
		{name: "Unknown", cfg: events.Config{Driver: "carrier-pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub, err := events.New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NoError(t, pub.Close())
		})
	}
}

func TestNop_Publish(t *testing.T) {
	assert.NoError(t, events.Nop{}.Publish(context.Background(), events.Event{Type: "transaction.created"}))
}

func TestEvent_Marshal(t *testing.T) {
	evt := events.Event{
		Type:       "transaction.status_changed",
		Key:        "TRX-1-20250101000000-ABCDEF01",
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Data:       map[string]string{"status": "COMPLETED"},
	}

	b, err := evt.Marshal()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, "transaction.status_changed", got["type"])
	assert.Equal(t, "TRX-1-20250101000000-ABCDEF01", got["key"])
	assert.Equal(t, "2025-01-01T00:00:00Z", got["occurred_at"])
	assert.Equal(t, map[string]any{"status": "COMPLETED"}, got["data"])
}
