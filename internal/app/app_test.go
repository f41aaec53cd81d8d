package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/photobox/internal/cache"
	"github.com/MrJamesThe3rd/photobox/internal/config"
)

func TestNewCache_FallsBackToMemory(t *testing.T) {
	c, err := newCache(context.Background(), &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	assert.IsType(t, &cache.Memory{}, c)
}

func TestNewNotifier_RejectsUnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Mail.Provider = "carrier-pigeon"

	_, err := newNotifier(cfg, time.UTC)
	assert.Error(t, err)
}

func TestRunExpiry_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})

	go func() {
		(&App{}).RunExpiry(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunExpiry did not return with a zero interval")
	}
}
