package api

import (
	"github.com/gofiber/fiber/v3"

	"geocache/internal/models"
	"geocache/internal/resolver"
)

// ResolveHandler exposes IP resolution via JSON API.
type ResolveHandler struct {
	resolver *resolver.Resolver
}

// NewResolveHandler creates a new API resolve handler.
func NewResolveHandler(r *resolver.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: r}
}

// Resolve looks up an IP and returns its record. The engine never fails a
// lookup: malformed or private input yields a sentinel record with 200.
func (h *ResolveHandler) Resolve(c fiber.Ctx) error {
	key := c.Params("ip")
	rec := h.resolver.Resolve(c.Context(), key)
	return jsonSuccess(c, rec)
}

// Allowed checks an IP against the static allow-list without resolving it.
func (h *ResolveHandler) Allowed(c fiber.Ctx) error {
	key := c.Params("ip")
	return jsonSuccess(c, models.AllowedResponse{
		Key:     key,
		Allowed: h.resolver.IsAllowed(key),
	})
}
