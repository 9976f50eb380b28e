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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/karthikn/heritage-chat/backend/internal/auth"
	"github.com/karthikn/heritage-chat/backend/internal/chat"
	"github.com/karthikn/heritage-chat/backend/internal/config"
	"github.com/karthikn/heritage-chat/backend/internal/llm"
	"github.com/karthikn/heritage-chat/backend/internal/middleware"
	"github.com/karthikn/heritage-chat/backend/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	// A failed connect degrades persistence instead of killing the
	// process; every store call then returns a typed unavailable error.
	st := store.NewMongoStore()
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := st.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Printf("WARNING: %v — auth and chat history are unavailable", err)
	}
	cancel()
	defer st.Close(ctx)

	// ── Redis sessions ───────────────────────────────────────
	var sessions *auth.SessionStore
	if rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
		log.Printf("WARNING: redis connect: %v — sessions disabled, header auth only", err)
	} else {
		defer rdb.Close()
		sessions = auth.NewSessionStore(rdb)
	}

	// ── Completion provider ──────────────────────────────────
	var streamer chat.CompletionStreamer
	if cfg.GroqAPIKey == "" {
		log.Printf("WARNING: GROQ_API_KEY not set — chat is unavailable")
	} else {
		streamer = chat.NewStreamer(llm.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.GroqTimeout))
	}

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(st, sessions)
	chatHandler := chat.NewHandler(st, chat.NewService(st, streamer))

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "user-id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"heritage chat backend running","database_connected":%t,"chat_enabled":%t}`,
			st.Connected(), streamer != nil)
	})

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(sessions))
			r.Get("/me", authHandler.Me)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Delete("/account", authHandler.DeleteAccount)
		})
	})

	// Chat routes (protected)
	r.Route("/chat", func(r chi.Router) {
		r.Use(middleware.RequireUser(sessions))
		r.Post("/", chatHandler.HandleChat)
		r.Get("/history", chatHandler.HandleHistory)
		r.Delete("/history", chatHandler.HandleClear)
	})

	// ── Server ───────────────────────────────────────────────
	// Write timeout stays generous: /chat holds the response open while
	// the provider streams.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
