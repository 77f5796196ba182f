package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StockChecker fetches live price and stock in one batch.
type StockChecker interface {
	CheckCart(ctx context.Context, queries []backend.StockQuery) ([]domain.LiveStockEntry, error)
}

type pass struct {
	lineCount int
	result    Result
}

// Reconciler compares cart lines against live catalog data. Results are
// cached per cart and only recomputed when the number of lines changes.
type Reconciler struct {
	checker StockChecker
	log     *zap.Logger
	sfg     singleflight.Group

	mu   sync.Mutex
	last map[string]pass
}

func New(checker StockChecker, log *zap.Logger) *Reconciler {
	return &Reconciler{
		checker: checker,
		log:     log,
		last:    make(map[string]pass),
	}
}

// Refresh returns the reconciliation result for a cart, reusing the previous
// pass when the line count is unchanged.
func (r *Reconciler) Refresh(ctx context.Context, cartID string, lines []domain.CartLine) Result {
	r.mu.Lock()
	prev, ok := r.last[cartID]
	r.mu.Unlock()
	if ok && prev.lineCount == len(lines) {
		return prev.result
	}

	key := fmt.Sprintf("%s/%d", cartID, len(lines))
	v, _, _ := r.sfg.Do(key, func() (any, error) {
		r.mu.Lock()
		prev, ok := r.last[cartID]
		r.mu.Unlock()
		if ok && prev.lineCount == len(lines) {
			return prev.result, nil
		}

		res := r.Check(ctx, lines)
		r.mu.Lock()
		r.last[cartID] = pass{lineCount: len(lines), result: res}
		r.mu.Unlock()
		return res, nil
	})
	return v.(Result)
}

// Forget drops the cached pass of a cart.
func (r *Reconciler) Forget(cartID string) {
	r.mu.Lock()
	delete(r.last, cartID)
	r.mu.Unlock()
}

// Check runs one reconciliation pass. It never fails: a backend error yields
// an empty result.
func (r *Reconciler) Check(ctx context.Context, lines []domain.CartLine) Result {
	queries := distinctQueries(lines)
	if len(queries) == 0 {
		return Result{}
	}

	ctx, span := otel.Tracer("storefront/reconcile").Start(ctx, "reconcile.check")
	defer span.End()

	entries, err := r.checker.CheckCart(ctx, queries)
	if err != nil {
		metrics.RecordReconcileFailure()
		logger.WithContext(ctx, r.log).Warn("stock check failed, showing cart without warnings",
			zap.Int("lines", len(lines)),
			zap.Error(err))
		return Result{}
	}

	return Result{
		Entries:  entries,
		Warnings: warningsFor(lines, entries),
	}
}

func distinctQueries(lines []domain.CartLine) []backend.StockQuery {
	seen := make(map[string]struct{}, len(lines))
	var queries []backend.StockQuery
	for _, l := range lines {
		// colors are matched case-insensitively but sent as stored
		k := l.ProductID + "\x00" + strings.ToLower(l.Color())
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		queries = append(queries, backend.StockQuery{ProductID: l.ProductID, Color: l.Color()})
	}
	return queries
}
