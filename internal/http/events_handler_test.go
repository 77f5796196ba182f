package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readEvent(t *testing.T, r *bufio.Reader) cart.Event {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev cart.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
			return ev
		}
	}
}

func TestEventsStream_SnapshotThenChanges(t *testing.T) {
	f := newCartFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1", Quantity: 2}).Code)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/cart/events", nil)
	require.NoError(t, err)
	req.Header.Set(cartHeader, f.cartID)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	snapshot := readEvent(t, reader)
	assert.Equal(t, cart.EventReloaded, snapshot.Kind)
	assert.Equal(t, 2, snapshot.Count)
	assert.Equal(t, 1, snapshot.Lines)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p2", Color: "Red"}).Code)

	ev := readEvent(t, reader)
	assert.Equal(t, cart.EventAdded, ev.Kind)
	assert.Equal(t, f.cartID, ev.CartID)
	assert.Equal(t, 3, ev.Count)
	assert.Equal(t, 2, ev.Lines)
}

func TestEventsStream_Heartbeat(t *testing.T) {
	f := newCartFixture(t)
	h := NewEventsHandler(f.registry, zap.NewNop())
	h.heartbeat = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/events", nil).WithContext(context.WithValue(ctx, cartIDKey{}, f.cartID))
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: cart\n"))
	assert.Contains(t, body, ": ping\n\n")
}
