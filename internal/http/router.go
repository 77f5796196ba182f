package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Carts        CartOpener
	Products     ProductLookup
	Reconciler   StockReconciler
	Accounts     AccountBackend
	Orders       OrderService
	Checkout     CheckoutRunner
	Log          *zap.Logger
	Timeout      time.Duration
	SecureCookie bool
}

// NewRouter builds the storefront API. The returned handler is traced with
// otelhttp.
func NewRouter(d Deps) http.Handler {
	cartHandler := NewCartHandler(d.Carts, d.Products, d.Reconciler, d.Log, d.Timeout)
	eventsHandler := NewEventsHandler(d.Carts, d.Log)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.Log)
	ordersHandler := NewOrdersHandler(d.Orders, d.Accounts, d.Log, d.Timeout)
	authHandler := NewAuthHandler(d.Accounts, d.Log, d.Timeout, d.SecureCookie)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog(d.Log))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(RequireAuth(d.Log))
			r.Get("/", authHandler.GetProfile)
			r.Put("/", authHandler.UpdateProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(CartSession(d.SecureCookie))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Get("/events", eventsHandler.Stream)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{cart_key}", cartHandler.UpdateQuantity)
				r.Delete("/items/{cart_key}", cartHandler.RemoveItem)
			})

			r.With(RequireAuth(d.Log)).Post("/checkout", checkoutHandler.Checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireAuth(d.Log))
			r.Get("/", ordersHandler.ListOrders)
			r.Post("/{order_id}/cancel-otp", ordersHandler.RequestCancelOTP)
			r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
