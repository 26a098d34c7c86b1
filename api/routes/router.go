package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// NewRouter wires the storefront HTTP surface. redisClient may be nil, in
// which case idempotency and rate limiting are disabled. gatherer may be nil
// to skip /metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	productService products.Service,
	couponService coupons.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	addressService address.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestContext(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		counterStore     middleware.RateLimitStore
		cachePinger      controllers.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		counterStore = redisClient
		cachePinger = redisClient
	}

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.Checkout.RateLimitWindow, cfg.Checkout.RateLimit)
	addressPolicy := middleware.NewRateLimitPolicy("address", cfg.Address.RateLimitWindow, cfg.Address.RateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": cachePinger,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartShow(cartService, logg))
			r.Post("/add", cartcontrollers.CartAdd(cartService, logg))
			r.Post("/update", cartcontrollers.CartUpdate(cartService, logg))
			r.Post("/remove", cartcontrollers.CartRemove(cartService, logg))
			r.Get("/clear", cartcontrollers.CartClear(cartService, logg))
			r.Post("/apply-coupon", cartcontrollers.CartApplyCoupon(cartService, logg))
			r.Get("/remove-coupon", cartcontrollers.CartRemoveCoupon(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.With(
				middleware.RateLimit(checkoutPolicy, counterStore, logg),
				middleware.Idempotency(idempotencyStore, middleware.CheckoutIdempotencyTTL, logg),
			).Post("/process", controllers.CheckoutProcess(checkoutService, logg))
			r.Get("/success/{order}", controllers.CheckoutSuccess(ordersService, logg))
			r.With(
				middleware.RateLimit(addressPolicy, counterStore, logg),
			).Post("/fetch-address", controllers.CheckoutFetchAddress(addressService, logg))
		})

		r.Route("/webhook", func(r chi.Router) {
			r.With(
				middleware.RateLimit(checkoutPolicy, counterStore, logg),
				middleware.Idempotency(idempotencyStore, middleware.WebhookIdempotencyTTL, logg),
			).Post("/order-status", ordercontrollers.WebhookOrderStatus(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(productService, logg))
				r.Put("/{productId}", controllers.AdminUpdateProduct(productService, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(productService, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(couponService, logg))
				r.Post("/", controllers.AdminCreateCoupon(couponService, logg))
				r.Get("/{couponId}", controllers.AdminShowCoupon(couponService, logg))
				r.Put("/{couponId}", controllers.AdminUpdateCoupon(couponService, logg))
				r.Delete("/{couponId}", controllers.AdminDeleteCoupon(couponService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.AdminList(ordersService, logg))
				r.Get("/{order}", ordercontrollers.AdminShow(ordersService, logg))
				r.Put("/{order}/status", ordercontrollers.AdminUpdateStatus(ordersService, logg))
			})
		})
	})

	return r
}
