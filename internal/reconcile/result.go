package reconcile

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	urgentStock = 2
	lowStock    = 5
)

// Result is one reconciliation pass. Warnings are advisory and keyed by the
// line they concern.
type Result struct {
	Entries  []domain.LiveStockEntry
	Warnings map[domain.CartKey][]domain.Warning
}

// Entry finds the live entry for a line.
func (r Result) Entry(line domain.CartLine) (domain.LiveStockEntry, bool) {
	for _, e := range r.Entries {
		if line.Matches(e) {
			return e, true
		}
	}
	return domain.LiveStockEntry{}, false
}

func (r Result) MaxStock(line domain.CartLine) (int, bool) {
	e, ok := r.Entry(line)
	if !ok {
		return 0, false
	}
	return e.Stock, true
}

func (r Result) WarningsFor(key domain.CartKey) []domain.Warning {
	return r.Warnings[key]
}

func warningsFor(lines []domain.CartLine, entries []domain.LiveStockEntry) map[domain.CartKey][]domain.Warning {
	res := Result{Entries: entries}
	out := make(map[domain.CartKey][]domain.Warning)
	for _, l := range lines {
		live, ok := res.Entry(l)
		if !ok {
			continue
		}

		var ws []domain.Warning
		if !l.UnitPrice.Equal(live.Price) {
			ws = append(ws, domain.Warning{
				Kind:    domain.WarningPriceChanged,
				Message: "Price changed to " + domain.FormatEuro(live.Price),
			})
		}
		switch {
		case live.Stock <= urgentStock:
			ws = append(ws, domain.Warning{
				Kind:    domain.WarningUrgentStock,
				Message: fmt.Sprintf("Hurry! Only %d left in stock", live.Stock),
			})
		case live.Stock <= lowStock:
			ws = append(ws, domain.Warning{
				Kind:    domain.WarningLowStock,
				Message: fmt.Sprintf("Only %d left in stock", live.Stock),
			})
		}

		if len(ws) > 0 {
			out[l.Key()] = ws
		}
	}
	return out
}
