package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"procurement/internal/auth"
	"procurement/internal/metrics"
	"procurement/models"
)

type RouterOptions struct {
	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter mounts every API route. Buyer routes need a session token, vendor
// submission routes authenticate by the link token instead.
func NewRouter(h *Handler, tokens *auth.Tokens, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	if opts.MetricsEnabled {
		r.Use(metrics.Middleware)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)

		r.Get("/vendor-submission/{bidId}", h.VendorBidHandler)
		r.Post("/vendor-submission/{bidId}", h.SubmitResponseHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(tokens))

			r.Post("/csv-upload", h.CSVUploadHandler)
			r.Post("/ai-validation", h.ValidationHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleBuyer))

				r.Get("/vendors", h.ListVendorsHandler)
				r.Post("/vendors", h.CreateVendorHandler)
				r.Get("/vendors/{vendorId}/material-classes", h.VendorMaterialClassesHandler)
				r.Put("/vendors/{vendorId}/material-classes", h.SetMaterialClassesHandler)
				r.Get("/material-classes", h.MaterialClassesHandler)

				r.Get("/bids", h.ListBidsHandler)
				r.Post("/bids", h.CreateBidHandler)
				r.Get("/bids/{bidId}", h.GetBidHandler)
				r.Delete("/bids/{bidId}", h.DeleteBidHandler)
				r.Put("/bids/{bidId}", h.UpdateBidHandler)
				r.Post("/bids/{bidId}/extend", h.ExtendBidHandler)
				r.Post("/bids/{bidId}/remind", h.RemindHandler)
				r.Get("/bids/{bidId}/vendors", h.ListBidVendorsHandler)
				r.Post("/bids/{bidId}/vendors", h.AddBidVendorsHandler)
				r.Get("/bids/{bidId}/comparison", h.CompareHandler)
			})
		})
	})
	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
