// internal/services/geocoding_service.go
package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/accessramp/ramp-backend/internal/config"
)

// Geocoder resolves a postal address to coordinates. Failure is a hard error;
// pricing must not proceed on a guessed location.
type Geocoder interface {
	Geocode(address string) (*GeoPoint, error)
}

type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Formatted string  `json:"formatted"`
}

type GeocodingService struct {
	config     *config.Config
	httpClient *http.Client
}

func NewGeocodingService(config *config.Config) *GeocodingService {
	return &GeocodingService{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (s *GeocodingService) Geocode(address string) (*GeoPoint, error) {
	if address == "" {
		return nil, fmt.Errorf("geocoding: empty address")
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("key", s.config.Geocoding.APIKey)

	resp, err := s.httpClient.Get(s.config.Geocoding.BaseURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding request failed: status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return nil, fmt.Errorf("geocoding failed for %q: status %s", address, parsed.Status)
	}

	result := parsed.Results[0]
	return &GeoPoint{
		Latitude:  result.Geometry.Location.Lat,
		Longitude: result.Geometry.Location.Lng,
		Formatted: result.FormattedAddress,
	}, nil
}
