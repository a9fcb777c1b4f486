package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localpro/marketplace/internal/service"
	"github.com/localpro/marketplace/pkg/health"
	"github.com/localpro/marketplace/pkg/middleware"
)

// NewRouter creates a chi router with all marketplace routes registered.
func NewRouter(
	userService *service.UserService,
	catalogService *service.CatalogService,
	bookingService *service.BookingService,
	reviewService *service.ReviewService,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("marketplace"))
	r.Use(middleware.Tracing("marketplace"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	userHandler := NewUserHandler(userService, logger)
	catalogHandler := NewCatalogHandler(catalogService, logger)
	bookingHandler := NewBookingHandler(bookingService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	authenticated := middleware.Auth(validateToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Auth endpoints (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/refresh", userHandler.Refresh)
		})

		// Account endpoints
		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
		})

		// Catalog endpoints. Reads are public and briefly cacheable.
		r.Route("/services", func(r chi.Router) {
			r.With(middleware.CacheControl(60)).Get("/", catalogHandler.ListServices)
			r.With(middleware.CacheControl(60)).Get("/{id}", catalogHandler.GetService)
			r.With(middleware.CacheControl(60)).Get("/{id}/reviews", reviewHandler.ListServiceReviews)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.With(middleware.RequireRole("provider")).Post("/", catalogHandler.CreateService)
				r.Put("/{id}", catalogHandler.UpdateService)
				r.Delete("/{id}", catalogHandler.DeactivateService)
			})
		})

		// Provider reviews are public.
		r.With(middleware.CacheControl(60)).Get("/providers/{id}/reviews", reviewHandler.ListProviderReviews)

		// Booking endpoints (participants only)
		r.Route("/bookings", func(r chi.Router) {
			r.Use(authenticated)
			r.With(middleware.RequireRole("customer")).Post("/", bookingHandler.CreateBooking)
			r.Get("/", bookingHandler.ListMyBookings)
			r.Get("/{id}", bookingHandler.GetBooking)
			r.With(middleware.RequireRole("provider")).Put("/{id}/status", bookingHandler.UpdateBookingStatus)
			r.Post("/{id}/cancel", bookingHandler.CancelBooking)
		})

		// Review endpoints
		r.Route("/reviews", func(r chi.Router) {
			r.Use(authenticated)
			r.With(middleware.RequireRole("customer")).Post("/", reviewHandler.AddReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})
	})

	return r
}
