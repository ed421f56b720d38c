package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medibook/medibook-backend/api/controllers"
	cartcontrollers "github.com/medibook/medibook-backend/api/controllers/cart"
	"github.com/medibook/medibook-backend/api/middleware"
	"github.com/medibook/medibook-backend/internal/cart"
	checkoutsvc "github.com/medibook/medibook-backend/internal/checkout"
	"github.com/medibook/medibook-backend/pkg/config"
	"github.com/medibook/medibook-backend/pkg/db"
	"github.com/medibook/medibook-backend/pkg/enums"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRolePatient, enums.ActorRoleCaregiver))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Get("/totals", cartcontrollers.CartTotals(cartService, logg))
			r.Put("/selection", cartcontrollers.CartSetAllSelected(cartService, logg))
			r.With(middleware.Idempotency(idempotencyStore, cfg.Cart.IdempotencyTTL, logg)).
				Post("/checkout", cartcontrollers.CartCheckout(cartService, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartcontrollers.CartAddItem(cartService, logg))
				r.Patch("/{productId}/{variantUnit}", cartcontrollers.CartUpdateQuantity(cartService, logg))
				r.Delete("/{productId}/{variantUnit}", cartcontrollers.CartRemoveItem(cartService, logg))
				r.Put("/{productId}/{variantUnit}/selection", cartcontrollers.CartSetSelected(cartService, logg))
			})
		})

		r.Route("/checkout/submissions", func(r chi.Router) {
			r.Get("/", controllers.CheckoutSubmissionsList(checkoutService, logg))
			r.Get("/{submissionId}", controllers.CheckoutSubmissionGet(checkoutService, logg))
		})
	})

	return r
}
