package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/siege-picker/internal/hub"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, c *operator.Catalog, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Route("/operators", func(r chi.Router) {
		r.Get("/", ListOperators(c))
		r.Get("/{id}", GetOperator(c))
	})

	r.Post("/profiles", CreateProfile(h, log))
	r.Route("/profiles/{code}", func(r chi.Router) {
		r.Get("/ownership", GetOwnership(h))
		r.Put("/ownership", ImportOwnership(h))
		r.Delete("/ownership", DeselectAll(h))
		r.Post("/ownership/select-all", SelectAll(h))
		r.Post("/ownership/{id}", AddOperator(h))
		r.Delete("/ownership/{id}", RemoveOperator(h))
		r.Post("/ownership/{id}/toggle", ToggleOperator(h))

		r.Get("/theme", GetTheme(h))
		r.Put("/theme", SetTheme(h))

		r.Post("/lineup", RollLineup(h))
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
