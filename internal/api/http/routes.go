package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates the HTTP router with task routes, health check, and
// Prometheus metrics endpoint.
func NewRouter(taskService TaskServiceI, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	taskHandler := NewTaskHandler(taskService, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/translate/background", taskHandler.SubmitTask)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Get("/stats", taskHandler.Stats)
			r.Get("/{taskID}", taskHandler.GetTask)
			r.Delete("/{taskID}", taskHandler.DeleteTask)
			r.Post("/{taskID}/retry", taskHandler.RetryTask)
			r.Post("/{taskID}/cancel", taskHandler.CancelTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
