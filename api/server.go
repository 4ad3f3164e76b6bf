/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the case form client

ROUTE GROUPS:
  /api/cases/*          Cases, dates, computations, sections
  /api/alerts           Deadline scheduler output
  /api/rules            Active rule set
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Case routes
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", h.ListCases)
			r.Post("/", h.CreateCase)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCase)
				r.Put("/", h.UpdateCase)
				r.Delete("/", h.DeleteCase)

				r.Patch("/dates", h.UpdateDates)
				r.Post("/dates/{field}/recalculate", h.RecalculateDate)

				r.Get("/constraints", h.GetConstraints)
				r.Get("/filing-window", h.GetFilingWindow)
				r.Get("/validation", h.GetValidation)
				r.Post("/status-check", h.CheckStatus)
				r.Get("/deadlines", h.GetDeadlines)
				r.Get("/progress", h.GetProgress)

				r.Get("/sections", h.GetSections)
				r.Post("/sections/{section}/toggle", h.ToggleSection)
				r.Post("/sections/{section}/open", h.OpenSection)
				r.Post("/sections/{section}/close", h.CloseSection)
				r.Post("/sections/{section}/override", h.EnableOverride)
				r.Delete("/sections/{section}/override", h.DisableOverride)
			})
		})

		r.Get("/alerts", h.ListAlerts)
		r.Get("/rules", h.GetRules)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>PERM Deadline Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>PERM Deadline Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/cases">/api/cases</a> - List cases</li>
<li><a href="/api/alerts">/api/alerts</a> - Deadline alerts</li>
<li><a href="/api/rules">/api/rules</a> - Active rule set</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
