// internal/services/pricing_service_test.go
package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSettings() PricingSettings {
	return PricingSettings{
		BaseSetupFee:        250,
		PricePerFoot:        15,
		PricePerMile:        2.5,
		ComponentInstallFee: 50,
	}
}

func TestCalculateRates(t *testing.T) {
	monthly, setup := CalculateRates(testSettings(), 20, 2, 10)

	assert.Equal(t, 300.0, monthly)
	assert.Equal(t, 375.0, setup)
}

func TestCalculateRatesZeroDistance(t *testing.T) {
	monthly, setup := CalculateRates(testSettings(), 12, 2, 0)

	assert.Equal(t, 180.0, monthly)
	assert.Equal(t, 350.0, setup)
}

func TestCalculateRatesRoundsToCents(t *testing.T) {
	settings := testSettings()
	settings.PricePerMile = 2.55

	_, setup := CalculateRates(settings, 10, 0, 3.333)
	assert.Equal(t, 258.5, setup)
}

func TestHaversineSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(40.7128, -74.0060, 40.7128, -74.0060))
}

func TestHaversineOneDegreeLongitudeAtEquator(t *testing.T) {
	d := Haversine(0, 0, 0, 1)
	assert.InDelta(t, 69.17, d, 0.05)
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := Haversine(40.7128, -74.0060, 42.3601, -71.0589)
	b := Haversine(42.3601, -71.0589, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-9)
}

func TestHaversineNewYorkToBoston(t *testing.T) {
	// Great-circle distance NYC to Boston is roughly 190 miles.
	d := Haversine(40.7128, -74.0060, 42.3601, -71.0589)
	assert.InDelta(t, 190, d, 5)
	assert.False(t, math.IsNaN(d))
}
