package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/auth"
	"github.com/freeeve/polite-betrayal/planner/internal/config"
	"github.com/freeeve/polite-betrayal/planner/internal/handler"
	"github.com/freeeve/polite-betrayal/planner/internal/logger"
	"github.com/freeeve/polite-betrayal/planner/internal/middleware"
	"github.com/freeeve/polite-betrayal/planner/internal/repository/postgres"
	redisrepo "github.com/freeeve/polite-betrayal/planner/internal/repository/redis"
	"github.com/freeeve/polite-betrayal/planner/internal/service"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("port", cfg.Port).Int("iterations", cfg.Search.Iterations).
		Int("restarts", cfg.Search.Restarts).Bool("devAuth", cfg.DevAuth).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL, cfg.PlanTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	planSvc := service.NewPlanService(diplomacy.StandardMap(), cfg.Search, redisClient, redisClient, postgres.NewRunRepo(db), wsHub)
	planSvc.SetMaxDuration(cfg.MaxPlanDuration)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr, cfg.DevAuth)
	planHandler := handler.NewPlanHandler(planSvc)
	wsHandler := handler.NewWSHandler(wsHub, planSvc)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		if err := redisClient.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"redis unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/token", authHandler.IssueToken)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /strategies", planHandler.Strategies)
	api.HandleFunc("POST /plans", planHandler.Submit)
	api.HandleFunc("GET /plans/{id}", planHandler.Get)
	api.HandleFunc("DELETE /plans/{id}", planHandler.Cancel)
	api.HandleFunc("GET /runs", planHandler.ListRuns)
	api.HandleFunc("GET /runs/{id}", planHandler.GetRun)
	api.HandleFunc("GET /ws", wsHandler.ServeWS) // token via ?token=

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Recover, middleware.Logger, middleware.CORS("*"))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Int("runningPlans", planSvc.Running()).Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if err := planSvc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Running plans did not finish before shutdown")
	}
	log.Info().Msg("Server stopped")
}
