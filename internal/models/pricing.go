package models

// PriceEstimate is a stateless pricing band suggestion for a listing.
type PriceEstimate struct {
	Low        float64  `json:"low"`
	High       float64  `json:"high"`
	Confidence float64  `json:"confidence"`
	Factors    []string `json:"factors"`
}

// ShippingRate is a single carrier quote.
type ShippingRate struct {
	Carrier string  `json:"carrier"`
	ETA     string  `json:"eta"`
	Cost    float64 `json:"cost"`
}

// ShippingQuote is the full response for a rate request.
type ShippingQuote struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Rates       []ShippingRate `json:"rates"`
}
