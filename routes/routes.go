package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer, middleware.RequestSize(app.MaxBodyBytes))

	root.Get("/healthz", Healthz(app))

	root.Route("/admin", func(r chi.Router) {
		r.Post("/login", Login(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.AdminToken(app.Config), middlewares.Sanitize)

			// CRUD form
			r.Post("/forms", CreateForm(app))
			r.Get("/forms", ListForms(app))
			r.Get("/forms/{id}", GetForm(app))
			r.Put("/forms/{id}", UpdateForm(app))
			r.Delete("/forms/{id}", DeleteForm(app))

			// field operations
			r.Post("/forms/{id}/fields", AddField(app))
			r.Put("/forms/{id}/fields/reorder", ReorderFields(app))
			r.Put("/forms/{id}/fields/{fieldId}", UpdateField(app))
			r.Delete("/forms/{id}/fields/{fieldId}", DeleteField(app))
		})
	})

	root.Get("/forms", PublicListForms(app))
	root.Get("/forms/{id}", PublicGetForm(app))

	root.Route("/submissions", func(r chi.Router) {
		r.With(middlewares.Sanitize).Post("/", SubmitForm(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.AdminToken(app.Config))
			r.Get("/", ListSubmissions(app))
			r.Get("/form/{formId}", ListFormSubmissions(app))
			r.Get("/{id}", GetSubmission(app))
		})
	})

	return root
}

func Healthz(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		render.JSON(w, r, map[string]any{"status": "ok"})
	}
}
