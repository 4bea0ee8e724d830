// Package provider implements the ordered chain of external lookup
// providers. Providers are unreliable and heterogeneous in response shape;
// each one carries its own validation rule and transform so the chain can
// be reordered or extended without touching orchestration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"geocache/internal/models"
)

// ErrChainExhausted means every configured provider failed for one
// resolution attempt.
var ErrChainExhausted = errors.New("all providers failed")

// Provider is one external lookup source. Attempt performs the network
// call and returns the raw response body; Validate and Transform interpret
// that opaque payload in the provider's own shape.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, key string) ([]byte, error)
	Validate(raw []byte) bool
	Transform(raw []byte, key string) (*models.Record, error)
}

// Chain tries providers strictly in order and returns the first
// successful, validated, transformed record.
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over the given providers, in order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Len returns the number of configured providers.
func (c *Chain) Len() int {
	return len(c.providers)
}

// Resolve walks the chain. A network failure, invalid response, or
// transform error moves on to the next provider; when none succeeds the
// chain reports exhaustion and leaves the sentinel decision to the caller.
func (c *Chain) Resolve(ctx context.Context, key string) (*models.Record, error) {
	for _, p := range c.providers {
		raw, err := p.Attempt(ctx, key)
		if err != nil {
			slog.Debug("provider attempt failed", "provider", p.Name(), "key", key, "error", err)
			continue
		}
		if !p.Validate(raw) {
			slog.Debug("provider response rejected", "provider", p.Name(), "key", key)
			continue
		}
		rec, err := p.Transform(raw, key)
		if err != nil {
			slog.Debug("provider transform failed", "provider", p.Name(), "key", key, "error", err)
			continue
		}
		return rec, nil
	}
	return nil, ErrChainExhausted
}

// New returns the named provider with a per-call timeout.
func New(name string, timeout time.Duration) (Provider, error) {
	switch name {
	case "ip-api":
		return NewIPAPI(timeout), nil
	case "ipwhois":
		return NewIPWhois(timeout), nil
	case "freeipapi":
		return NewFreeIPAPI(timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
