package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/musikmadness/musikmadness-api/docs"
	"github.com/musikmadness/musikmadness-api/handlers"
	"github.com/musikmadness/musikmadness-api/metrics"
	"github.com/musikmadness/musikmadness-api/middleware"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Recorder       *metrics.Recorder
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics(opts.Recorder))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticate := middleware.Authenticate([]byte(opts.JWTSecret))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.With(authenticate).Post("/", tournamentHandler.Create)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByID)
			r.With(authenticate).Delete("/", tournamentHandler.Delete)

			r.Get("/participants", participantHandler.List)
			r.With(authenticate).Post("/participants", participantHandler.Join)

			r.With(authenticate).Post("/begin", bracketHandler.Begin)
			r.Get("/bracket", bracketHandler.GetBracket)
			r.Get("/bracket/layout", bracketHandler.GetLayout)

			r.Get("/matchups/{matchupID}", bracketHandler.GetMatchup)
			r.With(authenticate).Post("/matchups/{matchupID}/winner", bracketHandler.RecordWinner)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
