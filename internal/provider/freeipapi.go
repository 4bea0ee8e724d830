package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"geocache/internal/models"
)

// freeIPAPIResponse is the subset of freeipapi.com's response shape we
// consume. This provider has no explicit success flag; an empty country
// marks an unusable answer. It also reports no network operator.
type freeIPAPIResponse struct {
	CountryName string `json:"countryName"`
	RegionName  string `json:"regionName"`
	CityName    string `json:"cityName"`
}

// FreeIPAPI queries freeipapi.com.
type FreeIPAPI struct {
	BaseURL string
	timeout time.Duration
	client  *http.Client
}

// NewFreeIPAPI creates the freeipapi.com provider with a per-call timeout.
func NewFreeIPAPI(timeout time.Duration) *FreeIPAPI {
	return &FreeIPAPI{
		BaseURL: "https://freeipapi.com/api/json",
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Name identifies the provider in logs and configuration.
func (p *FreeIPAPI) Name() string { return "freeipapi" }

// Attempt fetches the raw response for key.
func (p *FreeIPAPI) Attempt(ctx context.Context, key string) ([]byte, error) {
	return httpGet(ctx, p.client, fmt.Sprintf("%s/%s", p.BaseURL, key), p.timeout)
}

// Validate accepts responses that name a country.
func (p *FreeIPAPI) Validate(raw []byte) bool {
	var r freeIPAPIResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	return r.CountryName != ""
}

// Transform maps the provider shape to a record.
func (p *FreeIPAPI) Transform(raw []byte, key string) (*models.Record, error) {
	var r freeIPAPIResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("malformed freeipapi response: %w", err)
	}
	attrs := map[string]string{
		models.AttrCountry: r.CountryName,
		models.AttrRegion:  r.RegionName,
		models.AttrCity:    r.CityName,
	}
	return models.NewRecord(key, attrs), nil
}
