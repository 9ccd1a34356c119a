package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/service"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/health"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/middleware"
)

// Services bundles the services exposed over HTTP.
type Services struct {
	Products  *service.ProductService
	Variants  *service.VariantService
	SKUs      *service.SKUValidator
	SKUChecks *service.FieldChecks
}

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	SKUCheckLimit  middleware.RateLimitConfig
	RequestTimeout time.Duration
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all catalog editor routes registered.
// ctx bounds background work started by middleware.
func NewRouter(
	ctx context.Context,
	svcs Services,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SKUCheckLimit.Key == nil {
		cfg.SKUCheckLimit.Key = middleware.ClientIPAndParam("id")
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	productHandler := NewProductHandler(svcs.Products, logger)
	variantHandler := NewVariantHandler(svcs.Variants, svcs.Products, logger)
	skuHandler := NewSKUCheckHandler(svcs.SKUChecks, svcs.SKUs, logger)
	skuCheckLimit := middleware.RateLimit(ctx, cfg.SKUCheckLimit, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.CreateProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.DocumentScope(logger, "id"))

			r.Get("/", productHandler.GetProduct)
			r.Patch("/", productHandler.UpdateProduct)
			r.Delete("/", productHandler.DeleteProduct)
			r.Post("/publish", productHandler.PublishProduct)
			r.Put("/options", productHandler.UpdateOptions)

			r.Post("/variants/generate", variantHandler.GenerateVariants)
			r.Delete("/variants", variantHandler.ClearVariants)
			r.Get("/variants/preview", variantHandler.PreviewVariants)
			r.Get("/variants/export", variantHandler.ExportVariants)
			r.Patch("/variants/{key}", productHandler.UpdateVariant)

			r.With(skuCheckLimit).Post("/sku-checks", skuHandler.CheckSKU)
			r.Get("/sku-checks", skuHandler.ListSKUChecks)
			r.Get("/sku-report", skuHandler.SKUReport)
		})
	})

	return r
}
