package services

import (
	"math"
	"strings"

	"driftmarket/server/internal/models"
)

// IPricingService provides the stateless pricing-estimate and shipping-rate
// computations. No store access, no invariants.
type IPricingService interface {
	EstimatePrice(category string, price float64) *models.PriceEstimate
	ShippingRates(origin, destination string) *models.ShippingQuote
}

// priceBand is the per-category baseline used by the estimator.
type priceBand struct {
	Low  float64
	High float64
}

var categoryBands = map[string]priceBand{
	"electronics": {Low: 240, High: 420},
	"furniture":   {Low: 120, High: 380},
	"fashion":     {Low: 40, High: 160},
	"sports":      {Low: 60, High: 220},
}

var defaultBand = priceBand{Low: 200, High: 300}

// pricingService implements IPricingService.
type pricingService struct{}

// NewPricingService creates a new PricingService.
func NewPricingService() IPricingService {
	return &pricingService{}
}

// EstimatePrice widens the category band by up to 8% of the asking price
// (capped at 45) and floors the low end at 20.
func (s *pricingService) EstimatePrice(category string, price float64) *models.PriceEstimate {
	band, ok := categoryBands[strings.ToLower(category)]
	if !ok {
		band = defaultBand
	}

	var delta float64
	if price > 0 {
		delta = math.Min(price*0.08, 45)
	}

	return &models.PriceEstimate{
		Low:        math.Max(20, band.Low-delta),
		High:       band.High + delta,
		Confidence: 0.78,
		Factors:    []string{"Recent sales", "Demand index", "Condition"},
	}
}

// ShippingRates returns the fixed carrier table for an origin/destination
// pair.
func (s *pricingService) ShippingRates(origin, destination string) *models.ShippingQuote {
	return &models.ShippingQuote{
		Origin:      origin,
		Destination: destination,
		Rates: []models.ShippingRate{
			{Carrier: "UPS", ETA: "2-3 days", Cost: 18.5},
			{Carrier: "FedEx", ETA: "1-2 days", Cost: 24.2},
			{Carrier: "USPS", ETA: "3-4 days", Cost: 12.9},
		},
	}
}
