package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/middleware"
	"github.com/kevinaaaquil/poems/backend/render"
	"github.com/kevinaaaquil/poems/backend/session"
	"github.com/kevinaaaquil/poems/backend/store"
)

type RouterConfig struct {
	Store    store.Store
	Sessions *session.Manager
	Logger   *logging.ZerologLogger
	// CORSOrigin is the allowed credentialed origin; empty reflects the caller.
	CORSOrigin string
	// AdminRoleRefresh checks the admin role against the store on every
	// admin request instead of trusting the token.
	AdminRoleRefresh bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	authHandler := &AuthHandler{Users: cfg.Store, Sessions: cfg.Sessions, Log: log}
	poemsHandler := &PoemsHandler{Poems: cfg.Store, Log: log}
	favoritesHandler := &FavoritesHandler{Favorites: cfg.Store, Log: log}

	var roles middleware.RoleSource
	if cfg.AdminRoleRefresh {
		roles = cfg.Store
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(logging.Middleware(log.Zerolog()))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Fail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.OK(w, render.M{"message": "welcome to poems."})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.OK(w, render.M{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/poems", poemsHandler.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Sessions))
			r.Get("/me", authHandler.Me)
			r.Post("/poems/create", poemsHandler.Create)
			r.Delete("/poems/{id}", poemsHandler.Delete)
			r.Post("/favorites/{poemId}", favoritesHandler.Add)
			r.Delete("/favorites/{poemId}", favoritesHandler.Remove)

			r.With(middleware.RequireAdmin(roles, log)).Get("/admin", authHandler.Admin)
		})
	})
	return r
}
