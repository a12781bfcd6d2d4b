package enums

import "fmt"

// PriceType selects the USPS pricing tier applied to a quote.
type PriceType string

const (
	PriceTypeRetail     PriceType = "RETAIL"
	PriceTypeCommercial PriceType = "COMMERCIAL"
	PriceTypeContract   PriceType = "CONTRACT"
)

var validPriceTypes = []PriceType{
	PriceTypeRetail,
	PriceTypeCommercial,
	PriceTypeContract,
}

// String implements fmt.Stringer.
func (p PriceType) String() string {
	return string(p)
}

// IsValid reports whether the price type is recognized.
func (p PriceType) IsValid() bool {
	for _, candidate := range validPriceTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceType converts a raw string into a PriceType.
func ParsePriceType(value string) (PriceType, error) {
	for _, candidate := range validPriceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price type %q", value)
}
