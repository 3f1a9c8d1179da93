package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
)

// NewRouter wires the API routes.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	log := logger.Default().WithComponent("api")

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/evaluate/{symbol}", h.Evaluate).Methods(http.MethodGet)
	api.HandleFunc("/factors", h.Factors).Methods(http.MethodGet)
	api.HandleFunc("/evaluations", h.Evaluations).Methods(http.MethodGet)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	return r
}

func loggingMiddleware(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("http request")
		})
	}
}

func recoveryMiddleware(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(logrus.Fields{
						"error": err,
						"path":  r.URL.Path,
					}).Error("panic recovered")
					respondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
