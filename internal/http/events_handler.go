package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"go.uber.org/zap"
)

const (
	heartbeatInterval = 15 * time.Second
	eventBuffer       = 16
)

// EventsHandler streams cart changes as server-sent events.
type EventsHandler struct {
	carts     CartOpener
	log       *zap.Logger
	heartbeat time.Duration
}

func NewEventsHandler(carts CartOpener, log *zap.Logger) *EventsHandler {
	return &EventsHandler{carts: carts, log: log, heartbeat: heartbeatInterval}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.carts.Open(ctx, cartIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	events := make(chan cart.Event, eventBuffer)
	unsubscribe := store.Subscribe(func(ev cart.Event) {
		select {
		case events <- ev:
		default:
			h.log.Debug("dropping cart event for slow subscriber", zap.String("cart_id", ev.CartID))
		}
	})
	defer unsubscribe()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	lines := store.Lines()
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	snapshot := cart.Event{CartID: store.ID(), Kind: cart.EventReloaded, Count: count, Lines: len(lines)}
	if err := writeEvent(w, rc, snapshot); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := writeEvent(w, rc, ev); err != nil {
				h.log.Debug("cart event stream closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev cart.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}
