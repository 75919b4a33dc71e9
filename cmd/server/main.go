package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/linkplate/backend/internal/config"
	"github.com/linkplate/backend/internal/handlers"
	appMiddleware "github.com/linkplate/backend/internal/middleware"
	"github.com/linkplate/backend/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Profile store: Mongo when configured, local JSON file otherwise.
	var store services.ProfileStore
	var accounts *services.MongoAccountService
	if cfg.MongoURI != "" {
		mongoStore, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect profile store: %v", err)
		}
		defer mongoStore.Close(ctx)
		store = mongoStore

		accounts, err = services.NewMongoAccountService(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect account store: %v", err)
		}
		defer accounts.Close(ctx)
	} else {
		log.Printf("Warning: MONGODB_URI not set, using local file store in %s (auth disabled)", cfg.DataDir)
		fileStore, err := services.NewFileProfileService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open file store: %v", err)
		}
		store = fileStore
	}

	// Privileged accessor is optional; missing or bad credentials mean every
	// lookup runs on the fallback path.
	var privileged services.ProfileReader
	if priv, err := services.NewPrivilegedStore(ctx, cfg.MongoAdminURI, cfg.MongoDBName); err != nil {
		log.Printf("Warning: privileged accessor unavailable: %v", err)
	} else {
		defer priv.Close(ctx)
		privileged = priv
	}

	resolver := services.NewResolver(privileged, store)

	media, err := services.NewMediaService(ctx, cfg.FirebaseCredentialsJSON, cfg.StorageBucket)
	if err != nil {
		log.Printf("Warning: media uploads unavailable: %v", err)
		media = nil
	}

	publicHandler := handlers.NewPublicProfileHandler(resolver, cfg.APIBudget)
	pageHandler := handlers.NewPageHandler(resolver, cfg.MetadataBudget)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public profile read; intentionally unauthenticated.
		r.Get("/profile/{username}", publicHandler.GetProfile)

		if accounts != nil {
			authHandler := handlers.NewAuthHandler(
				accounts,
				services.NewRecaptchaVerifier(cfg.RecaptchaSecret),
				services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.ResetFromEmail),
				cfg.JWTSecret,
				cfg.JWTExpiration,
			)
			dashboardHandler := handlers.NewDashboardHandler(store, accounts, media, cfg.MaxUploadSizeMB)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/reset", authHandler.RequestReset)
				r.Post("/reset/confirm", authHandler.ConfirmReset)

				r.Group(func(r chi.Router) {
					r.Use(appMiddleware.JWTAuth(cfg.JWTSecret))
					r.Get("/me", authHandler.Me)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(appMiddleware.JWTAuth(cfg.JWTSecret))

				r.Get("/profile", dashboardHandler.GetProfile)
				r.Put("/profile", dashboardHandler.UpdateProfile)
				r.Post("/profile/links", dashboardHandler.UpsertLink)
				r.Delete("/profile/links/{linkId}", dashboardHandler.RemoveLink)
				r.Post("/profile/media", dashboardHandler.UploadMedia)
			})
		}
	})

	// Page loader script and other static assets.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	// Public profile page shell.
	r.Get("/{username}", pageHandler.ProfilePage)

	log.Printf("Linkplate server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
