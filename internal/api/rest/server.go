package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/metrics"
)

// Server represents the REST API server
type Server struct {
	addr    string
	server  *http.Server
	handler http.Handler
}

// NewServer creates a new REST API server listening on addr
func NewServer(addr string, handler *Handler, m *metrics.Manager, log logrus.FieldLogger) *Server {
	// Preflight requests match no route, so CORS sits outside the router.
	root := CORSMiddleware(NewRouter(handler, m, log))

	return &Server{
		addr:    addr,
		handler: root,
		server: &http.Server{
			Addr:              addr,
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the route table and middleware chain.
func NewRouter(handler *Handler, m *metrics.Manager, log logrus.FieldLogger) *mux.Router {
	router := mux.NewRouter()

	// Apply middleware, outermost first
	router.Use(LoggingMiddleware(log))
	router.Use(MetricsMiddleware(m))
	router.Use(RecoveryMiddleware(log))

	// Health check and metrics
	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Players; the fixed paths must be registered before /players/{playerID}
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods(http.MethodGet)
	api.HandleFunc("/players/compare", handler.ComparePlayers).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}", handler.GetPlayer).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}", handler.RefreshPlayer).Methods(http.MethodPost)
	api.HandleFunc("/players/{playerID}/stats/season", handler.GetSeasonStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/stats/season", handler.RefreshSeasonStats).Methods(http.MethodPost)
	api.HandleFunc("/players/{playerID}/stats/career", handler.GetCareerStats).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/stats/cached", handler.GetCachedSeasons).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/gamelog", handler.GetGameLog).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/report", handler.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/players/{playerID}/report", handler.GenerateReport).Methods(http.MethodPost)

	// Games
	api.HandleFunc("/games/today", handler.GetTodaysGames).Methods(http.MethodGet)
	api.HandleFunc("/games/pitch-locations/{playerID}", handler.GetPitchLocations).Methods(http.MethodGet)
	api.HandleFunc("/games/pitcher-vs-team/{pitcherID}/{teamID}", handler.GetPitcherVsTeam).Methods(http.MethodGet)

	return router
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
