// Package httpapi assembles the chi router for the session API.
package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"canvasd/internal/http/handlers"
	"canvasd/internal/infra"
	"canvasd/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, log zerolog.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.SessionState)
			r.Delete("/", app.SessionClose)
			r.Post("/undo", app.SessionUndo)
			r.Post("/redo", app.SessionRedo)
			r.Post("/save", app.SessionSave)

			r.Post("/objects", app.ObjectAdd)
			r.Patch("/objects/{objectID}", app.ObjectModify)
			r.Delete("/objects/{objectID}", app.ObjectRemove)
		})
	})

	return r
}
