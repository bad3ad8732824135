package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/emoai-app/emoai-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/verify", handlers.VerifyEmail)
	r.Get("/api/auth/me", handlers.GetMe)

	// Profile routes
	r.Get("/api/profile", handlers.GetProfile)

	// Journaling routes
	r.Post("/api/journals", handlers.CreateJournal)
	r.Get("/api/journals", handlers.GetJournals)
}
