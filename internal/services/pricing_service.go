// internal/services/pricing_service.go
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
)

// EarthRadiusMiles is the radius used for great-circle distance.
const EarthRadiusMiles = 3959.87433

// Fallback rates used when the settings rows are missing.
const (
	defaultBaseSetupFee        = 250.0
	defaultPricePerFoot        = 15.0
	defaultPricePerMile        = 2.5
	defaultComponentInstallFee = 50.0
)

var ErrNoWarehouseAddress = errors.New("warehouse address is not configured")

type PricingService struct {
	db       *gorm.DB
	config   *config.Config
	geocoder Geocoder
}

// PricingSettings is the snapshot of settings the rate formulas run against.
type PricingSettings struct {
	BaseSetupFee        float64 `json:"base_setup_fee"`
	PricePerFoot        float64 `json:"price_per_foot"`
	PricePerMile        float64 `json:"price_per_mile"`
	ComponentInstallFee float64 `json:"component_install_fee"`
	WarehouseAddress    string  `json:"warehouse_address"`
}

type ComponentSelection struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
}

type PriceEstimate struct {
	MonthlyRate    float64 `json:"monthly_rate"`
	SetupFee       float64 `json:"setup_fee"`
	RampLengthFt   float64 `json:"ramp_length_ft"`
	ComponentCount int     `json:"component_count"`
	DistanceMiles  float64 `json:"distance_miles"`
}

func NewPricingService(db *gorm.DB, config *config.Config, geocoder Geocoder) *PricingService {
	return &PricingService{
		db:       db,
		config:   config,
		geocoder: geocoder,
	}
}

// LoadSettings reads the pricing configuration rows, falling back to the
// built-in defaults for any missing key.
func (s *PricingService) LoadSettings() PricingSettings {
	settings := PricingSettings{
		BaseSetupFee:        s.floatSetting("pricing", "base_setup_fee", defaultBaseSetupFee),
		PricePerFoot:        s.floatSetting("pricing", "price_per_foot", defaultPricePerFoot),
		PricePerMile:        s.floatSetting("pricing", "price_per_mile", defaultPricePerMile),
		ComponentInstallFee: s.floatSetting("pricing", "component_install_fee", defaultComponentInstallFee),
		WarehouseAddress:    s.stringSetting("location", "warehouse_address", s.config.Warehouse.Address),
	}
	return settings
}

func (s *PricingService) floatSetting(category, key string, fallback float64) float64 {
	var setting models.Setting
	if err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error; err != nil {
		return fallback
	}
	return setting.FloatValue(fallback)
}

func (s *PricingService) stringSetting(category, key, fallback string) string {
	var setting models.Setting
	if err := s.db.Where("category = ? AND key = ?", category, key).First(&setting).Error; err != nil {
		return fallback
	}
	return setting.StringValue(fallback)
}

// CalculateRates applies the rate formulas to an already-measured job.
// monthly = length * per-foot; setup = base + miles * per-mile + components * install-fee.
func CalculateRates(settings PricingSettings, rampLengthFt float64, componentCount int, distanceMiles float64) (monthlyRate, setupFee float64) {
	monthlyRate = rampLengthFt * settings.PricePerFoot
	setupFee = settings.BaseSetupFee +
		distanceMiles*settings.PricePerMile +
		float64(componentCount)*settings.ComponentInstallFee
	return roundCents(monthlyRate), roundCents(setupFee)
}

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// DistanceToAddress geocodes the warehouse and the customer address and
// returns the straight-line distance between them. Either geocoding failure
// aborts the calculation.
func (s *PricingService) DistanceToAddress(settings PricingSettings, address *models.Address) (float64, error) {
	if settings.WarehouseAddress == "" {
		return 0, ErrNoWarehouseAddress
	}

	warehouse, err := s.geocoder.Geocode(settings.WarehouseAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to geocode warehouse: %w", err)
	}

	var customer *GeoPoint
	if address.Latitude != nil && address.Longitude != nil {
		customer = &GeoPoint{Latitude: *address.Latitude, Longitude: *address.Longitude}
	} else {
		customer, err = s.geocoder.Geocode(address.FormattedLine())
		if err != nil {
			return 0, fmt.Errorf("failed to geocode customer address: %w", err)
		}

		// Cache the geocode on the address row for later estimates.
		address.Latitude = &customer.Latitude
		address.Longitude = &customer.Longitude
		if customer.Formatted != "" {
			address.Formatted = customer.Formatted
		}
		if err := s.db.Save(address).Error; err != nil {
			return 0, fmt.Errorf("failed to persist geocoded address: %w", err)
		}
	}

	return Haversine(warehouse.Latitude, warehouse.Longitude, customer.Latitude, customer.Longitude), nil
}

// Estimate prices a component selection delivered to the given address.
func (s *PricingService) Estimate(selections []ComponentSelection, addressID uuid.UUID) (*PriceEstimate, error) {
	if len(selections) == 0 {
		return nil, errors.New("at least one component must be selected")
	}

	var address models.Address
	if err := s.db.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("address not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	rampLength := 0.0
	componentCount := 0
	for _, sel := range selections {
		var component models.Component
		if err := s.db.First(&component, sel.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("component %s not found", sel.ComponentID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		componentCount += sel.Quantity
		if component.ComponentType == models.ComponentTypeRamp {
			rampLength += component.LengthFt * float64(sel.Quantity)
		}
	}

	settings := s.LoadSettings()
	distance, err := s.DistanceToAddress(settings, &address)
	if err != nil {
		return nil, err
	}

	monthly, setup := CalculateRates(settings, rampLength, componentCount, distance)
	return &PriceEstimate{
		MonthlyRate:    monthly,
		SetupFee:       setup,
		RampLengthFt:   rampLength,
		ComponentCount: componentCount,
		DistanceMiles:  math.Round(distance*100) / 100,
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
