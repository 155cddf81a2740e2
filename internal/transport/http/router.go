package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"candidate-onboarding/internal/platform/middleware"
)

// NewRouter assembles the full HTTP surface with the standard middleware
// chain applied to every route.
func NewRouter(handler *Handler, logger *zap.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.Register(r)

	return r
}
