package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultIdleTTL matches the lifetime of a cached cart.
const DefaultIdleTTL = 15 * time.Minute

// Registry hands out one Store per cart id and keeps them in step with
// writes made by other processes. Stores nobody opened within the idle TTL
// and nobody subscribes to are dropped; the cart itself stays persisted.
type Registry struct {
	persist Persister
	bus     Broadcaster
	log     *zap.Logger
	origin  string
	idleTTL time.Duration
	onEvict []func(cartID string)
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*entry
}

type entry struct {
	store  *Store
	opened time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL sets how long an unused store is kept. Zero disables eviction.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

// OnEvict registers fn to run for every cart id the registry drops.
func OnEvict(fn func(cartID string)) RegistryOption {
	return func(r *Registry) { r.onEvict = append(r.onEvict, fn) }
}

func NewRegistry(p Persister, bus Broadcaster, log *zap.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		persist: p,
		bus:     bus,
		log:     log,
		origin:  uuid.NewString(),
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		stores:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the store for cartID with its lines freshly loaded.
func (r *Registry) Open(ctx context.Context, cartID string) (*Store, error) {
	r.mu.Lock()
	e, ok := r.stores[cartID]
	if !ok {
		e = &entry{store: NewStore(cartID, r.origin, r.persist, r.bus, r.log)}
		r.stores[cartID] = e
	}
	e.opened = r.now()
	s := e.store
	r.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Len is the number of stores held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops idle stores without subscribers and returns how many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	var evicted []string
	r.mu.Lock()
	for id, e := range r.stores {
		if e.opened.Before(cutoff) && e.store.Subscribers() == 0 {
			delete(r.stores, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range r.onEvict {
			fn(id)
		}
	}
	if len(evicted) > 0 {
		r.log.Debug("evicted idle cart stores", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run reloads local stores when another process announces a change and
// sweeps idle stores. It blocks until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	changes, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	var sweep <-chan time.Time
	if r.idleTTL > 0 {
		t := time.NewTicker(max(r.idleTTL/2, time.Second))
		defer t.Stop()
		sweep = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sweep:
			r.Sweep()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			r.apply(ctx, change)
		}
	}
}

func (r *Registry) apply(ctx context.Context, change domain.CartChange) {
	if change.Origin == r.origin {
		return
	}
	r.mu.Lock()
	e, ok := r.stores[change.CartID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := e.store.Reload(ctx); err != nil {
		r.log.Warn("cart reload after broadcast failed", zap.String("cart_id", change.CartID), zap.Error(err))
	}
}
