package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"graceqt-backend/internal/handlers"
	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/websocket"
)

// Deps collects everything the HTTP surface needs. Hub is nil when Redis is
// not configured; the websocket route then answers 503.
type Deps struct {
	Sessions *middleware.SessionTokens
	Persona  *handlers.PersonaHandler
	QT       *handlers.QTHandler
	Prayer   *handlers.PrayerHandler
	Verse    *handlers.VerseHandler
	Presence *handlers.PresenceHandler
	Hub      *websocket.Hub

	// PersonaLimiter guards the text-generation routes.
	PersonaLimiter *middleware.RateLimiter
	FrontendURL    string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	if d.PersonaLimiter == nil {
		d.PersonaLimiter = middleware.NewRateLimiter(20, time.Minute)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Persona Routes ────
		r.Group(func(r chi.Router) {
			r.Use(d.PersonaLimiter.Middleware)
			r.Post("/analyze-persona", d.Persona.Analyze)
			r.Post("/chat", d.Persona.Chat)
		})

		// ──── QT Log Routes ────
		r.Route("/qt", func(r chi.Router) {
			r.Get("/", d.QT.List)
			r.Post("/", d.QT.Create)
			r.Put("/{id}", d.QT.Update)
			r.Delete("/{id}", d.QT.Delete)
			r.Post("/{id}/verify", d.QT.Verify)
		})

		// ──── Prayer Routes ────
		r.Route("/prayer", func(r chi.Router) {
			r.Get("/", d.Prayer.List)
			r.Post("/", d.Prayer.Create)
			r.Delete("/{id}", d.Prayer.Delete)
			r.Post("/{id}/amen", d.Prayer.Amen)
		})

		r.Get("/verse/today", d.Verse.Today)

		// ──── Presence ────
		r.Get("/presence", d.Presence.Online)
		r.Get("/presence/token", d.Presence.Token)

		// ──── WebSocket ────
		if d.Hub != nil {
			r.With(d.Sessions.Middleware).Get("/ws", d.Hub.HandleWebSocket)
		} else {
			r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Presence is not enabled", http.StatusServiceUnavailable)
			})
		}
	})

	return r
}
