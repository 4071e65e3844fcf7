package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cleanbid/backend/internal/auth"
	"github.com/cleanbid/backend/internal/engagement"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, authManager *auth.AuthManager, beacons *engagement.Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for auth cookies
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// Public beacon endpoints. No tenant auth; tokens are the capability.
	if beacons != nil {
		r.Get("/track/open/{token}", beacons.HandleOpen)
		r.Post("/track/view/{token}", beacons.HandleView)
		r.Post("/track/scroll/{token}", beacons.HandleScroll)
		r.Post("/track/time/{token}", beacons.HandleTime)
		r.Post("/track/click/{token}", beacons.HandleClick)
	}
	if h.Exporter != nil && h.Finder != nil {
		r.Get("/track/download/{token}", h.HandlePublicDownload)
	}

	// API routes (tenant-scoped, behind the session)
	r.Route("/api", func(r chi.Router) {
		r.Use(TenantContext(authManager))

		r.Get("/usage", h.GetUsage)

		r.Route("/proposals", func(r chi.Router) {
			r.Get("/", h.ListProposals)
			r.Post("/", h.CreateProposal)
			r.Get("/{id}", h.GetProposal)
			r.Put("/{id}/status", h.UpdateProposalStatus)
			r.Get("/{id}/history", h.GetProposalHistory)
			r.Post("/{id}/share", h.ShareProposal)
			r.Get("/{id}/pdf", h.DownloadProposalPDF)
		})
	})

	return r
}
