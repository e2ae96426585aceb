// Package httpserver wires storage, services and middleware into a
// single http.Handler and runs it.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/fitmenu/mealplanner/internal/auth"
	"github.com/fitmenu/mealplanner/internal/config"
	"github.com/fitmenu/mealplanner/internal/ingredients"
	"github.com/fitmenu/mealplanner/internal/meals"
	"github.com/fitmenu/mealplanner/internal/schedules"
	"github.com/fitmenu/mealplanner/internal/storage"
	"github.com/fitmenu/mealplanner/internal/storage/memory"
	"github.com/fitmenu/mealplanner/internal/storage/postgres"
)

type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	s.initStorage()
	s.routes()
	return s
}

// initStorage picks the backend: Postgres when DATABASE_URL is set,
// in-memory otherwise (and as fallback when the connection fails).
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("connecting to PostgreSQL...")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("PostgreSQL connection failed: %v", err)
		log.Println("falling back to in-memory storage")
		s.storage = memory.New()
		return
	}
	log.Println("PostgreSQL connected")
	s.storage = pgStorage
}

func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandlers := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandlers.HandleDevAuth)

	// Ingredients API
	ingredientsService := ingredients.NewService(s.storage)
	ingredientsHandlers := ingredients.NewHandlers(ingredientsService)

	s.mux.HandleFunc("POST /v1/ingredients", ingredientsHandlers.HandleCreate)
	s.mux.HandleFunc("GET /v1/ingredients", ingredientsHandlers.HandleList)
	s.mux.HandleFunc("GET /v1/ingredients/{id}", ingredientsHandlers.HandleGet)
	s.mux.HandleFunc("PATCH /v1/ingredients/{id}", ingredientsHandlers.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/ingredients/{id}", ingredientsHandlers.HandleDelete)

	// Meals API
	mealsService := meals.NewService(s.storage, s.storage)
	mealsHandlers := meals.NewHandlers(mealsService)

	s.mux.HandleFunc("POST /v1/meals", mealsHandlers.HandleCreate)
	s.mux.HandleFunc("GET /v1/meals", mealsHandlers.HandleList)
	// date route before {id} so "date" is not captured as a meal id
	s.mux.HandleFunc("GET /v1/meals/date/{date}", mealsHandlers.HandleListByDate)
	s.mux.HandleFunc("GET /v1/meals/{id}", mealsHandlers.HandleGet)
	s.mux.HandleFunc("POST /v1/meals/{id}/duplicate", mealsHandlers.HandleDuplicate)
	s.mux.HandleFunc("PATCH /v1/meals/{id}", mealsHandlers.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/meals/{id}", mealsHandlers.HandleDelete)

	// Meal Schedules API
	schedulesService := schedules.NewService(s.storage, s.storage)
	schedulesHandlers := schedules.NewHandlers(schedulesService)

	s.mux.HandleFunc("POST /v1/meal-schedules", schedulesHandlers.HandleCreate)
	s.mux.HandleFunc("GET /v1/meal-schedules", schedulesHandlers.HandleList)
	s.mux.HandleFunc("GET /v1/meal-schedules/week", schedulesHandlers.HandleWeekView)
	s.mux.HandleFunc("PUT /v1/meal-schedules/week", schedulesHandlers.HandleReplaceWeek)
	s.mux.HandleFunc("GET /v1/meal-schedules/nutrition/daily", schedulesHandlers.HandleDailyNutrition)
	s.mux.HandleFunc("GET /v1/meal-schedules/{id}", schedulesHandlers.HandleGet)
	s.mux.HandleFunc("PATCH /v1/meal-schedules/{id}", schedulesHandlers.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/meal-schedules/{id}", schedulesHandlers.HandleDelete)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler returns the full middleware chain (outermost first):
// CORS → Rate Limit → Auth → Router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.RequireAuth(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start runs the HTTP server. Blocks until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	log.Printf("server listening on http://localhost%s\n", addr)
	log.Printf("health check: http://localhost%s/healthz\n", addr)

	return http.ListenAndServe(addr, s.Handler())
}

// Close releases the storage backend.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
