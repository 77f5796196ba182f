package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"go.uber.org/zap"
)

type EventKind string

const (
	EventAdded    EventKind = "added"
	EventUpdated  EventKind = "updated"
	EventRemoved  EventKind = "removed"
	EventCleared  EventKind = "cleared"
	EventReloaded EventKind = "reloaded"
)

// Event is delivered to subscribers after the cart changed.
type Event struct {
	CartID string         `json:"cart_id"`
	Kind   EventKind      `json:"kind"`
	Key    domain.CartKey `json:"cart_key,omitempty"`
	Count  int            `json:"count"`
	Lines  int            `json:"lines"`
}

// Store is the observable working set of one cart. Every mutation writes the
// whole line list through the Persister, then notifies local subscribers and
// the Broadcaster. Concurrent writers in other processes win by writing last.
type Store struct {
	id      string
	origin  string
	persist Persister
	bus     Broadcaster
	log     *zap.Logger

	mu    sync.RWMutex
	lines []domain.CartLine

	subMu     sync.Mutex
	listeners map[int]func(Event)
	nextSub   int
}

func NewStore(id, origin string, p Persister, bus Broadcaster, log *zap.Logger) *Store {
	return &Store{
		id:        id,
		origin:    origin,
		persist:   p,
		bus:       bus,
		log:       log,
		listeners: make(map[int]func(Event)),
	}
}

func (s *Store) ID() string { return s.id }

func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Count is the number of items across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Totals() domain.Totals {
	return domain.ComputeTotals(s.Lines())
}

// Add merges quantity into the line for the resolved variant, or appends one.
// It returns false without error when product has no variant matching sel.
func (s *Store) Add(ctx context.Context, product domain.Product, sel *domain.VariantSelector, quantity int) (bool, error) {
	if quantity < 1 {
		return false, ErrInvalidQuantity
	}
	item, ok := product.Resolve(sel)
	if !ok {
		return false, nil
	}

	key := domain.NewCartKey(item.ProductID, item.Variant)
	err := s.mutate(ctx, EventAdded, key, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		if i := indexOf(lines, key); i >= 0 {
			if lines[i].Quantity+quantity > item.Stock {
				return nil, ErrInsufficientStock
			}
			lines[i].Quantity += quantity
			return lines, nil
		}
		if quantity > item.Stock {
			return nil, ErrInsufficientStock
		}
		return append(lines, domain.CartLine{
			ProductID:       item.ProductID,
			Variant:         item.Variant,
			Name:            item.Name,
			UnitPrice:       item.Price,
			OriginalPrice:   item.OriginalPrice,
			DiscountPercent: item.DiscountPercent,
			ImageURL:        item.ImageURL,
			Quantity:        quantity,
		}), nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateQuantity sets the quantity of a line, clamped to [1, live stock].
// Without a live entry for the line the bound is DefaultMaxStock.
func (s *Store) UpdateQuantity(ctx context.Context, key domain.CartKey, quantity int, bounds StockBounds) (domain.CartLine, error) {
	return s.setQuantity(ctx, key, bounds, func(int) int { return quantity })
}

// AdjustQuantity moves a line's quantity by delta, clamped like UpdateQuantity.
func (s *Store) AdjustQuantity(ctx context.Context, key domain.CartKey, delta int, bounds StockBounds) (domain.CartLine, error) {
	return s.setQuantity(ctx, key, bounds, func(current int) int { return current + delta })
}

func (s *Store) setQuantity(ctx context.Context, key domain.CartKey, bounds StockBounds, next func(int) int) (domain.CartLine, error) {
	var updated domain.CartLine
	err := s.mutate(ctx, EventUpdated, key, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, key)
		if i < 0 {
			return nil, ErrLineNotFound
		}
		lines[i].Quantity = Clamp(next(lines[i].Quantity), BoundFor(bounds, lines[i]))
		updated = lines[i]
		return lines, nil
	})
	return updated, err
}

func (s *Store) Remove(ctx context.Context, key domain.CartKey) error {
	return s.mutate(ctx, EventRemoved, key, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		return slices.DeleteFunc(lines, func(l domain.CartLine) bool { return l.Key() == key }), nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, EventCleared, "", func([]domain.CartLine) ([]domain.CartLine, error) {
		return nil, nil
	})
}

// Reload replaces the in-memory lines with the persisted ones. Subscribers
// hear about it only when something changed.
func (s *Store) Reload(ctx context.Context) error {
	lines, err := s.persist.Load(ctx, s.id)
	if err != nil {
		return fmt.Errorf("load cart %s: %w", s.id, err)
	}

	s.mu.Lock()
	changed := !slices.EqualFunc(s.lines, lines, sameLine)
	s.lines = lines
	ev := s.eventLocked(EventReloaded, "")
	s.mu.Unlock()

	if changed {
		s.notify(ev)
	}
	return nil
}

// Subscribers is the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.listeners)
}

// Subscribe registers fn for every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

func (s *Store) mutate(ctx context.Context, kind EventKind, key domain.CartKey, fn func([]domain.CartLine) ([]domain.CartLine, error)) error {
	s.mu.Lock()
	next, err := fn(cloneLines(s.lines))
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if len(next) == 0 {
		err = s.persist.Delete(ctx, s.id)
	} else {
		err = s.persist.Save(ctx, s.id, next)
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist cart %s: %w", s.id, err)
	}

	s.lines = next
	ev := s.eventLocked(kind, key)
	s.mu.Unlock()

	metrics.RecordCartMutation(string(kind))
	s.notify(ev)
	if s.bus != nil {
		if err := s.bus.Publish(ctx, domain.CartChange{CartID: s.id, Origin: s.origin}); err != nil {
			s.log.Warn("cart broadcast failed", zap.String("cart_id", s.id), zap.Error(err))
		}
	}
	return nil
}

func (s *Store) eventLocked(kind EventKind, key domain.CartKey) Event {
	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return Event{CartID: s.id, Kind: kind, Key: key, Count: count, Lines: len(s.lines)}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func indexOf(lines []domain.CartLine, key domain.CartKey) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.Key() == key })
}

func sameLine(a, b domain.CartLine) bool {
	return a.Key() == b.Key() && a.Quantity == b.Quantity && a.UnitPrice.Equal(b.UnitPrice)
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	for i, l := range lines {
		if l.Variant != nil {
			v := *l.Variant
			l.Variant = &v
		}
		out[i] = l
	}
	return out
}
