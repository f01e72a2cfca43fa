package routes

import (
	"net/http"

	"github.com/PelvK/planillas-buena-fe/handlers"
	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/obs"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Team     *handlers.TeamHandler
	Planilla *handlers.PlanillaHandler
	Jugador  *handlers.JugadorHandler
	Persona  *handlers.PersonaHandler
	Profile  *handlers.ProfileHandler
}

func SetupRoutes(h Handlers, auth *middleware.Authenticator, allowedOrigins []string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(obs.Instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", obs.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.List)
			r.Post("/", h.Team.Create)
			r.Post("/bulk", h.Team.BulkCreate)
			r.Get("/{teamID}", h.Team.GetByID)
			r.Put("/{teamID}", h.Team.Update)
			r.Delete("/{teamID}", h.Team.Delete)
		})

		r.Route("/planillas", func(r chi.Router) {
			r.Get("/", h.Planilla.List)
			r.Post("/", h.Planilla.Create)
			r.Post("/bulk", h.Planilla.BulkCreate)

			r.Route("/{planillaID}", func(r chi.Router) {
				r.Get("/", h.Planilla.GetByID)
				r.Put("/", h.Planilla.Update)
				r.Patch("/status", h.Planilla.UpdateStatus)
				r.Delete("/", h.Planilla.Delete)
				r.Get("/audit", h.Planilla.AuditLog)
				r.Get("/export", h.Planilla.Export)

				r.Post("/jugadores", h.Jugador.Add)
				r.Post("/personas", h.Persona.Add)
			})
		})

		r.Route("/jugadores/{jugadorID}", func(r chi.Router) {
			r.Put("/", h.Jugador.Update)
			r.Delete("/", h.Jugador.Delete)
		})

		r.Route("/personas/{personaID}", func(r chi.Router) {
			r.Put("/", h.Persona.Update)
			r.Delete("/", h.Persona.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Profile.List)
			r.Post("/", h.Profile.Create)
			r.Put("/{userID}", h.Profile.Update)
			r.Delete("/{userID}", h.Profile.Delete)
		})
	})

	return router
}
