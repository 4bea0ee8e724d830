package api

import (
	"github.com/gofiber/fiber/v3"

	"geocache/internal/models"
	"geocache/internal/resolver"
)

// AdminHandler exposes maintenance operations, invoked outside the
// request path.
type AdminHandler struct {
	resolver *resolver.Resolver
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(r *resolver.Resolver) *AdminHandler {
	return &AdminHandler{resolver: r}
}

// Stats returns the operational snapshot.
func (h *AdminHandler) Stats(c fiber.Ctx) error {
	return jsonSuccess(c, h.resolver.Stats())
}

// ClearAll empties the memory cache and the persistent store.
func (h *AdminHandler) ClearAll(c fiber.Ctx) error {
	removed, err := h.resolver.ClearAll(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to clear store")
	}
	return jsonSuccess(c, models.ClearResponse{Removed: removed})
}

// ClearExpired removes TTL-expired entries from both tiers.
func (h *AdminHandler) ClearExpired(c fiber.Ctx) error {
	removed, err := h.resolver.ClearExpired(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to clear expired entries")
	}
	return jsonSuccess(c, models.ClearResponse{Removed: removed})
}
