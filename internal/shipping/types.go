package shipping

import (
	"time"

	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

// PackageDescriptor is the physical package the carrier is asked to price.
// Weight is pounds, dimensions are inches.
type PackageDescriptor struct {
	Weight float64
	Length float64
	Width  float64
	Height float64
}

// Girth is the carrier's combined-dimension measure, length + 2*(width+height).
func (p PackageDescriptor) Girth() float64 {
	return p.Length + 2*(p.Width+p.Height)
}

// LineItem is one cart entry feeding the package estimator. Zero values mean
// the merchant never captured the measurement and defaults apply.
type LineItem struct {
	Quantity int
	Weight   float64 // pounds per unit
	Length   float64 // inches
	Width    float64
	Height   float64
}

// RatesRequest is the aggregator input for one quote.
type RatesRequest struct {
	DestinationZIP string
	Package        PackageDescriptor
	CartID         string
}

// RatesResult is the aggregator output. Degraded marks a fallback merge where
// at least one mail class failed and was omitted from Rates.
type RatesResult struct {
	OriginZIP      string
	DestinationZIP string
	Rates          []usps.RateOption
	Degraded       bool
	FromCache      bool
	FetchedAt      time.Time
}
