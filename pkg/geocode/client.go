// Package geocode provides a coordinate resolver backed by a Nominatim-style
// geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"najah-search-go/internal/config"
	"najah-search-go/internal/model"
	"najah-search-go/pkg/log"
)

// Client resolves place names against a Nominatim search endpoint. Every call
// carries an explicit timeout from configuration.
type Client struct {
	cfg    config.GeocoderConfig
	client *http.Client
}

// NewClient creates a geocoding client.
func NewClient(cfg config.GeocoderConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// nominatimResult is the subset of the search response we consume.
type nominatimResult struct {
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	Importance float64 `json:"importance"`
}

// Resolve looks up placeName and returns its best-ranked coordinates plus a
// confidence in [0,1]. An unknown place returns (nil, 0, nil); transport and
// server failures return an error.
func (c *Client) Resolve(ctx context.Context, placeName string) (*model.GeoCoordinates, float64, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=3", c.cfg.BaseURL, url.QueryEscape(placeName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying user agent.
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("geocoder returned non-200 status: %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, 0, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		log.Infof("[Geocode] no result for %q", placeName)
		return nil, 0, nil
	}

	// Results come ranked; the first is the best match.
	best := results[0]
	lat, latErr := strconv.ParseFloat(best.Lat, 64)
	lon, lonErr := strconv.ParseFloat(best.Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, 0, fmt.Errorf("geocoder returned malformed coordinates for %q", placeName)
	}

	coords := &model.GeoCoordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		return nil, 0, fmt.Errorf("geocoder returned out-of-range coordinates for %q", placeName)
	}

	confidence := best.Importance
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return coords, confidence, nil
}
