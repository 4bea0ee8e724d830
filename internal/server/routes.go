package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geocache/internal/handlers"
	"geocache/internal/handlers/api"
	"geocache/internal/resolver"
	"geocache/internal/store"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(res *resolver.Resolver, st store.Store) {
	resolveHandler := api.NewResolveHandler(res)
	adminHandler := api.NewAdminHandler(res)
	probeHandler := handlers.NewProbeHandler(st)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Lookup API
	v1 := s.App.Group("/api")
	v1.Get("/resolve/:ip", resolveHandler.Resolve)
	v1.Get("/allowed/:ip", resolveHandler.Allowed)
	v1.Get("/stats", adminHandler.Stats)

	// Maintenance operations, outside the request path
	v1.Post("/admin/clear", adminHandler.ClearAll)
	v1.Post("/admin/clear-expired", adminHandler.ClearExpired)
}
