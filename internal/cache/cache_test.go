package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory()
	m.now = func() time.Time { return now }

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "poll:TRX-1", []byte("v1"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v2"), 0))

	got, err := m.Get(ctx, "poll:TRX-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	now = now.Add(time.Minute)

	_, err = m.Get(ctx, "poll:TRX-1")
	assert.ErrorIs(t, err, ErrMiss, "entry must expire at its ttl")

	got, err = m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, m.Delete(ctx, "forever"))

	_, err = m.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrMiss)
}
