package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"graceqt-backend/internal/config"
	"graceqt-backend/internal/database"
	"graceqt-backend/internal/handlers"
	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/persona"
	"graceqt-backend/internal/repository"
	"graceqt-backend/internal/router"
	"graceqt-backend/internal/services"
	"graceqt-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Grace QT Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Storage ────
	var (
		qtRepo     handlers.QTRepository
		prayerRepo handlers.PrayerRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverSupabase:
		client, err := repository.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Fatalf("✗ Supabase client initialization failed: %v", err)
		}
		qtRepo = repository.NewSupabaseQTLogRepo(client)
		prayerRepo = repository.NewSupabasePrayerRepo(client)
		log.Println("✓ Supabase client initialized")

	default:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		qtRepo = repository.NewQTLogRepo(pool)
		prayerRepo = repository.NewPrayerRepo(pool)
	}

	// ──── Step 3: Initialize Redis + Presence Hub (optional) ────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var wsHub *websocket.Hub
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		log.Println("✓ Redis connected")

		wsHub = websocket.NewHub(redisClients.Cmd, redisClients.PubSub)
		wsHub.Start(ctx)
		log.Println("✓ Presence hub started")
	} else {
		log.Println("⚠ REDIS_URL not set; presence hub disabled")
	}

	// ──── Step 4: Initialize Text Generation ────
	gen, closeGen, err := services.NewGenerator(cfg.LLM)
	if err != nil {
		log.Fatalf("✗ Text generation initialization failed: %v", err)
	}
	defer closeGen()
	if gen != nil {
		log.Printf("✓ Text generation provider: %s", cfg.LLM.Provider)
	}

	registry := persona.DefaultRegistry()
	classifier := persona.NewClassifier(gen, registry, cfg.LLM.ClassifyTimeout)
	session := persona.NewSession(gen, registry, cfg.LLM.ChatTimeout)
	log.Printf("✓ Persona engine ready (%d personas)", len(registry.Profiles()))

	// ──── Step 5: Initialize Services ────
	moderation := services.NewModerationService(cfg.OpenAIModerationKey)
	verses, err := services.NewVerseService()
	if err != nil {
		log.Fatalf("✗ Verse list failed to load: %v", err)
	}
	sessions := middleware.NewSessionTokens(cfg.SessionSecret)

	// A nil *Hub must not become a non-nil interface.
	var events handlers.EventPublisher
	var counter handlers.OnlineCounter
	if wsHub != nil {
		events = wsHub
		counter = wsHub
	}

	// ──── Step 6: Start HTTP Server ────
	personaLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer personaLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:       sessions,
		Persona:        handlers.NewPersonaHandler(classifier, session),
		QT:             handlers.NewQTHandler(qtRepo, moderation, events),
		Prayer:         handlers.NewPrayerHandler(prayerRepo, moderation, events, cfg.PrayerMasterPassword),
		Verse:          handlers.NewVerseHandler(verses),
		Presence:       handlers.NewPresenceHandler(sessions, counter, int(sessions.TTL.Seconds())),
		Hub:            wsHub,
		PersonaLimiter: personaLimiter,
		FrontendURL:    cfg.FrontendURL,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		stop()
		if wsHub != nil {
			wsHub.Close()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ Grace QT Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	if wsHub != nil {
		log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)
	}

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
