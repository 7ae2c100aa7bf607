package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Watch(t *testing.T) {
	chain := newFakeChain(1_000_000)
	svc, _ := newTestService(t, chain, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		updates []Update
	)
	callback := func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
		switch len(updates) {
		case 1:
			chain.setNative(1_000_500) // +500 лампортов
		case 3:
			cancel()
		}
	}

	err := svc.Watch(ctx, 5*time.Millisecond, callback)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 3)

	assert.Zero(t, updates[0].SinceBaseline.Sign())
	assert.Equal(t, int64(500), updates[1].SinceBaseline.Int64())
	assert.Equal(t, int64(500), updates[1].SinceLast.Int64())
	assert.Equal(t, int64(500), updates[2].SinceBaseline.Int64())
	assert.Zero(t, updates[2].SinceLast.Sign())
}

func TestService_WatchBaselineError(t *testing.T) {
	chain := newFakeChain(1)
	chain.balanceErrors = 100
	svc, _ := newTestService(t, chain, nil)

	err := svc.Watch(context.Background(), time.Millisecond, func(Update) {
		t.Fatal("callback must not be called without a baseline")
	})
	assert.Error(t, err)
}

func TestService_WatchInvalidInterval(t *testing.T) {
	svc, _ := newTestService(t, newFakeChain(1), nil)
	assert.Error(t, svc.Watch(context.Background(), 0, func(Update) {}))
}
