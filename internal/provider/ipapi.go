package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"geocache/internal/models"
)

// ipAPIResponse is the subset of ip-api.com's response shape we consume.
type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
}

// IPAPI queries ip-api.com.
type IPAPI struct {
	BaseURL string
	timeout time.Duration
	client  *http.Client
}

// NewIPAPI creates the ip-api.com provider with a per-call timeout.
func NewIPAPI(timeout time.Duration) *IPAPI {
	return &IPAPI{
		BaseURL: "http://ip-api.com/json",
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Name identifies the provider in logs and configuration.
func (p *IPAPI) Name() string { return "ip-api" }

// Attempt fetches the raw response for key.
func (p *IPAPI) Attempt(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,isp", p.BaseURL, key)
	return httpGet(ctx, p.client, url, p.timeout)
}

// Validate accepts only responses ip-api marks successful.
func (p *IPAPI) Validate(raw []byte) bool {
	var r ipAPIResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	return r.Status == "success" && r.Country != ""
}

// Transform maps the provider shape to a record.
func (p *IPAPI) Transform(raw []byte, key string) (*models.Record, error) {
	var r ipAPIResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("malformed ip-api response: %w", err)
	}
	attrs := map[string]string{
		models.AttrCountry: r.Country,
		models.AttrRegion:  r.RegionName,
		models.AttrCity:    r.City,
		models.AttrISP:     r.ISP,
	}
	return models.NewRecord(key, attrs), nil
}
