package cart

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Broadcaster carries cart-changed notices between processes sharing a cart.
type Broadcaster interface {
	Publish(ctx context.Context, change domain.CartChange) error
	Subscribe(ctx context.Context) (<-chan domain.CartChange, error)
}

// LocalBroadcaster fans changes out to subscribers in the same process.
type LocalBroadcaster struct {
	mu   sync.Mutex
	subs map[chan domain.CartChange]struct{}
}

func NewLocalBroadcaster() *LocalBroadcaster {
	return &LocalBroadcaster{subs: make(map[chan domain.CartChange]struct{})}
}

func (b *LocalBroadcaster) Publish(_ context.Context, change domain.CartChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- change:
		default:
			// slow subscriber, drop
		}
	}
	return nil
}

func (b *LocalBroadcaster) Subscribe(ctx context.Context) (<-chan domain.CartChange, error) {
	ch := make(chan domain.CartChange, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}
