package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"geocache/internal/models"
)

// ipWhoisResponse is the subset of ipwho.is's response shape we consume.
// Unlike ip-api, failure is signalled by a boolean plus a message field.
type ipWhoisResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	Region     string `json:"region"`
	City       string `json:"city"`
	Connection struct {
		ISP string `json:"isp"`
	} `json:"connection"`
}

// IPWhois queries ipwho.is.
type IPWhois struct {
	BaseURL string
	timeout time.Duration
	client  *http.Client
}

// NewIPWhois creates the ipwho.is provider with a per-call timeout.
func NewIPWhois(timeout time.Duration) *IPWhois {
	return &IPWhois{
		BaseURL: "https://ipwho.is",
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Name identifies the provider in logs and configuration.
func (p *IPWhois) Name() string { return "ipwhois" }

// Attempt fetches the raw response for key.
func (p *IPWhois) Attempt(ctx context.Context, key string) ([]byte, error) {
	return httpGet(ctx, p.client, fmt.Sprintf("%s/%s", p.BaseURL, key), p.timeout)
}

// Validate accepts only successful responses with a country.
func (p *IPWhois) Validate(raw []byte) bool {
	var r ipWhoisResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	return r.Success && r.Country != ""
}

// Transform maps the provider shape to a record.
func (p *IPWhois) Transform(raw []byte, key string) (*models.Record, error) {
	var r ipWhoisResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("malformed ipwho.is response: %w", err)
	}
	attrs := map[string]string{
		models.AttrCountry: r.Country,
		models.AttrRegion:  r.Region,
		models.AttrCity:    r.City,
		models.AttrISP:     r.Connection.ISP,
	}
	return models.NewRecord(key, attrs), nil
}
