package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/handlers"
	"github.com/storesmith/storefront/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	productHandler *handlers.ProductHandler,
	codec *auth.TokenCodec,
	users auth.UserFetcher,
) {
	loginRateLimit := middleware.LoginRateLimit()

	// Public routes - no access token required. Refresh and logout rely on
	// the HttpOnly refresh cookie rather than the Authorization header.
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/resend-verification", authHandler.ResendVerification)
	router.Get("/auth/verify-email", authHandler.VerifyEmail)
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/login", authHandler.Login)
	router.Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.Post("/auth/reset-password", authHandler.ResetPassword)
	router.Post("/auth/refresh", authHandler.Refresh)
	router.Post("/auth/logout", authHandler.Logout)

	// Catalog reads are public.
	router.Get("/products", productHandler.List)
	router.Get("/products/{id}", productHandler.Get)

	// Protected routes - valid access token and active account required.
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(codec, users))

		r.Get("/users/me", userHandler.Me)
		r.Get("/users/{id}", userHandler.Get)
		r.Put("/users/{id}", userHandler.UpdateProfile)
		r.Delete("/users/{id}", userHandler.Delete)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/users", userHandler.List)
			r.Patch("/users/{id}/status", userHandler.UpdateStatus)

			r.Post("/products", productHandler.Create)
			r.Put("/products/{id}", productHandler.Update)
			r.Delete("/products/{id}", productHandler.Delete)
			r.Patch("/products/{id}/stock", productHandler.AdjustStock)
		})
	})
}
