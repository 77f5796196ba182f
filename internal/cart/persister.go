package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/repository"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Persister stores the full line list of a cart.
type Persister interface {
	Load(ctx context.Context, cartID string) ([]domain.CartLine, error)
	Save(ctx context.Context, cartID string, lines []domain.CartLine) error
	Delete(ctx context.Context, cartID string) error
}

// CachedPersister reads through a Redis cache in front of the Mongo repository.
// Writes go to Mongo first and then through to the cache. A fill after a miss
// is dropped when a write bumped the cart's cache version in between.
type CachedPersister struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *zap.Logger
	sfg   singleflight.Group // Prevents cache stampede
	now   func() time.Time
}

func NewCachedPersister(repo repository.CartRepository, c cache.CartCache, log *zap.Logger) *CachedPersister {
	return &CachedPersister{repo: repo, cache: c, log: log, now: time.Now}
}

func (p *CachedPersister) Load(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	v, err, _ := p.sfg.Do(cartID, func() (interface{}, error) {
		c, seen, err := p.cache.Get(ctx, cartID)
		if err == nil {
			return c, nil
		}
		fill := errors.Is(err, cache.ErrCacheMiss)
		if !fill {
			p.log.Warn("cart cache get failed", zap.String("cart_id", cartID), zap.Error(err))
		}

		c, err = p.repo.GetCart(ctx, cartID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.Cart{ID: cartID}, nil
		}
		if err != nil {
			return nil, err
		}

		if fill {
			p.fill(ctx, c, seen)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart).Lines, nil
}

func (p *CachedPersister) fill(ctx context.Context, c *domain.Cart, seen cache.Version) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	ok, err := p.cache.Fill(ctx, c, seen)
	if err != nil {
		p.log.Warn("cart cache fill failed", zap.String("cart_id", c.ID), zap.Error(err))
		return
	}
	if !ok {
		p.log.Debug("cart cache fill skipped, newer write seen", zap.String("cart_id", c.ID))
	}
}

func (p *CachedPersister) Save(ctx context.Context, cartID string, lines []domain.CartLine) error {
	c := &domain.Cart{ID: cartID, Lines: lines, UpdatedAt: p.now().UTC()}
	if err := p.repo.UpsertCart(ctx, c); err != nil {
		return err
	}

	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := p.cache.Set(setCtx, c); err != nil {
		p.log.Warn("cart cache write failed", zap.String("cart_id", cartID), zap.Error(err))
		p.invalidate(ctx, cartID)
	}
	return nil
}

func (p *CachedPersister) Delete(ctx context.Context, cartID string) error {
	err := p.repo.DeleteCart(ctx, cartID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	p.invalidate(ctx, cartID)
	return nil
}

func (p *CachedPersister) invalidate(ctx context.Context, cartID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := p.cache.Delete(ctx, cartID); err != nil {
		p.log.Warn("cart cache invalidate failed", zap.String("cart_id", cartID), zap.Error(err))
	}
}

// MemoryPersister keeps carts in process memory.
type MemoryPersister struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartLine
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[string][]domain.CartLine)}
}

func (m *MemoryPersister) Load(_ context.Context, cartID string) ([]domain.CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLines(m.carts[cartID]), nil
}

func (m *MemoryPersister) Save(_ context.Context, cartID string, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cartID] = cloneLines(lines)
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	return nil
}
