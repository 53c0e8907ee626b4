package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/dsh-elg/internal/api"
	apiMiddleware "github.com/phrazzld/dsh-elg/internal/api/middleware"
)

// setupRouter creates the router with its middleware and the process route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(apiMiddleware.Recoverer)

	processHandler := api.NewProcessHandler(app.annotationService, app.config.Server.MaxBodyBytes)
	r.Post("/process", processHandler.Process)

	return r
}
