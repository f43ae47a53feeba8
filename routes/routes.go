package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-bot/docs"
	"github.com/Dosada05/tournament-bot/handlers"
	"github.com/Dosada05/tournament-bot/middleware"
)

type Handlers struct {
	WebApp      *handlers.WebAppHandler
	Tournaments *handlers.TournamentHandler
	WebSocket   *handlers.WebSocketHandler
	Health      *handlers.HealthHandler
}

func SetupRoutes(router chi.Router, h Handlers, tokens middleware.TokenParser, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.HealthHandler)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournaments.ListHandler)
		r.Get("/{tournamentID}", h.Tournaments.GetByIDHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		r.Post("/webapp", h.WebApp.SubmitHandler)
	})
}
