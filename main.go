package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"webshell/internal/config"
	"webshell/internal/database"
	"webshell/internal/handlers"
	"webshell/internal/logging"
	"webshell/internal/relay"
	"webshell/internal/session"
	"webshell/internal/transcript"
)

func main() {
	config.Load()
	logging.Init()

	if err := database.Init(); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	registry := session.NewRegistry(config.Cfg.ScrollbackBytes)
	recorder := transcript.NewRecorder(config.Cfg.TranscriptDir, database.DB)
	rel := relay.New(registry, recorder)

	handlers.Reg = registry
	handlers.Rel = rel
	handlers.Rec = recorder

	idleTimeout, err := time.ParseDuration(config.Cfg.SessionIdleTimeout)
	if err != nil {
		idleTimeout = 30 * time.Minute
	}
	log.Printf("Session settings: scrollback=%d bytes, idle_timeout=%s",
		config.Cfg.ScrollbackBytes, idleTimeout)

	// Periodic cleanup of sessions that never got (or lost) a transport and
	// have no observers left.
	c := cron.New()
	c.AddFunc("@every 5m", func() {
		cutoff := time.Now().Add(-idleTimeout)
		for _, s := range registry.All() {
			sum := s.Summarize()
			if !sum.Active && sum.Clients == 0 && sum.CreatedAt.Before(cutoff) {
				log.Printf("Cleaning up idle session %s (created %s)",
					sum.ID, sum.CreatedAt.Format(time.RFC3339))
				rel.Terminate(sum.ID, "session expired")
			}
		}
	})
	c.Start()
	defer c.Stop()

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	// Health (no auth)
	r.Get("/health", handlers.HealthCheck)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", handlers.CreateSession)
		r.Get("/sessions", handlers.ListSessions)
		r.Get("/sessions/{id}", handlers.GetSession)
		r.Delete("/sessions/{id}", handlers.DeleteSession)
		r.Get("/sessions/{id}/ws", handlers.TerminalWS)

		r.Get("/transcripts", handlers.ListTranscripts)
		r.Get("/transcripts/{id}/raw", handlers.GetTranscriptRaw)
		r.Get("/transcripts/{id}/clean", handlers.GetTranscriptClean)
		r.Get("/transcripts/{id}/replay", handlers.GetTranscriptReplay)
		r.Delete("/transcripts/{id}", handlers.DeleteTranscript)

		r.Get("/server/logs", handlers.ServerLogs)
		r.Delete("/server/logs", handlers.ClearServerLogs)
	})

	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	// Flush pending command buffers into transcripts before exit.
	rel.TerminateAll("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
