package chain

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Entity identifies contract state that a transaction changed. Empty
// Method or zero Account act as wildcards.
type Entity struct {
	Contract common.Address
	Method   string
	Account  common.Address
}

// Matches reports whether a read of (contract, method, account) is
// covered by e.
func (e Entity) Matches(contract common.Address, method string, account common.Address) bool {
	if e.Contract != contract {
		return false
	}
	if e.Method != "" && e.Method != method {
		return false
	}
	if e.Account != (common.Address{}) && e.Account != account {
		return false
	}
	return true
}

// Subscriber receives invalidation events on the bus goroutine.
type Subscriber func(Entity)

// Bus delivers "entity changed" events to subscribers in publish order.
//
// Publish never blocks. Events are queued until Run dispatches them from a
// single goroutine, so subscribers never run concurrently with each other.
type Bus struct {
	mu     sync.Mutex
	events []Entity
	closed bool
	signal chan struct{} // buffered, size 1

	subMu   sync.RWMutex
	nextID  int
	subs    map[int]Subscriber
	subList []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		events: make([]Entity, 0, 16),
		signal: make(chan struct{}, 1),
		subs:   make(map[int]Subscriber),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.subList = append(b.subList, id)

	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		delete(b.subs, id)
		for i, sid := range b.subList {
			if sid == id {
				b.subList = append(b.subList[:i], b.subList[i+1:]...)
				break
			}
		}
	}
}

// Publish queues events. Returns false if the bus is closed.
func (b *Bus) Publish(events ...Entity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.events = append(b.events, events...)

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of undispatched events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Close stops accepting events. Run drains what is queued and returns.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.signal)
}

// Run is the dispatch loop for long-lived holders of a Bus: started once
// on its own goroutine, it delivers events as they are published until ctx
// is done, or until Close is called and the queue is drained. One-shot
// commands do not start it and drain with Flush instead.
func (b *Bus) Run(ctx context.Context) error {
	for {
		for {
			e, ok := b.tryDequeue()
			if !ok {
				break
			}
			b.dispatch(e)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, open := <-b.signal:
			if !open {
				for {
					e, ok := b.tryDequeue()
					if !ok {
						return nil
					}
					b.dispatch(e)
				}
			}
		}
	}
}

// Flush dispatches everything queued on the calling goroutine. It is for
// callers that do not run a dispatch loop, such as one-shot CLI commands.
func (b *Bus) Flush() {
	for {
		e, ok := b.tryDequeue()
		if !ok {
			return
		}
		b.dispatch(e)
	}
}

func (b *Bus) tryDequeue() (Entity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return Entity{}, false
	}
	e := b.events[0]
	if len(b.events) == 1 {
		b.events = b.events[:0]
	} else {
		b.events = b.events[1:]
	}
	return e, true
}

func (b *Bus) dispatch(e Entity) {
	b.subMu.RLock()
	subs := make([]Subscriber, 0, len(b.subList))
	for _, id := range b.subList {
		subs = append(subs, b.subs[id])
	}
	b.subMu.RUnlock()

	slog.Debug("entity changed",
		"contract", e.Contract.Hex(),
		"method", e.Method,
		"account", e.Account.Hex(),
	)
	for _, fn := range subs {
		fn(e)
	}
}
