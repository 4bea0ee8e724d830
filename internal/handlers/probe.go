// Package handlers contains the HTTP boundary around the resolver engine.
package handlers

import (
	"github.com/gofiber/fiber/v3"

	"geocache/internal/store"
)

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	store store.Store
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(st store.Store) *ProbeHandler {
	return &ProbeHandler{store: st}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// The engine serves even with the database down (file fallback), so this
// only fails when no store tier at all can answer.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	if !h.store.Available(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"error":  "store unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
