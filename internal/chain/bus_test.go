package chain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_Matches(t *testing.T) {
	c := common.HexToAddress("0x01")
	a := common.HexToAddress("0x02")
	other := common.HexToAddress("0x03")

	assert.True(t, Entity{Contract: c}.Matches(c, "deposits", a))
	assert.True(t, Entity{Contract: c, Method: "deposits"}.Matches(c, "deposits", a))
	assert.True(t, Entity{Contract: c, Method: "deposits", Account: a}.Matches(c, "deposits", a))
	assert.False(t, Entity{Contract: c, Method: "deposits", Account: a}.Matches(c, "deposits", other))
	assert.False(t, Entity{Contract: c, Method: "claimed"}.Matches(c, "deposits", a))
	assert.False(t, Entity{Contract: other}.Matches(c, "deposits", a))
}

func TestBus_RunDeliversInOrder(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	bus.Subscribe(func(e Entity) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Method)
		if len(got) == 3 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- bus.Run(ctx) }()

	require.True(t, bus.Publish(Entity{Method: "a"}, Entity{Method: "b"}))
	require.True(t, bus.Publish(Entity{Method: "c"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}

	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestBus_CloseDrainsAndStops(t *testing.T) {
	bus := NewBus()
	var count int
	bus.Subscribe(func(Entity) { count++ })

	bus.Publish(Entity{Method: "x"}, Entity{Method: "y"})
	bus.Close()
	assert.False(t, bus.Publish(Entity{Method: "z"}))

	require.NoError(t, bus.Run(context.Background()))
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var first, second int
	unsub := bus.Subscribe(func(Entity) { first++ })
	bus.Subscribe(func(Entity) { second++ })

	bus.Publish(Entity{})
	bus.Flush()
	unsub()
	bus.Publish(Entity{})
	bus.Flush()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
