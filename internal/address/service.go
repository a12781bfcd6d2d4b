package address

import (
	"context"
	"regexp"
	"strings"

	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

var statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Standardizer is the carrier address surface the service consumes.
type Standardizer interface {
	StandardizeAddress(ctx context.Context, query usps.AddressQuery) (usps.StandardizedAddress, error)
}

// ValidateRequest is a customer-entered address to be checked against the
// carrier's canonical records. City is optional when a ZIP is supplied.
type ValidateRequest struct {
	StreetAddress    string
	SecondaryAddress string
	City             string
	State            string
	ZIPCode          string
}

type Service interface {
	Validate(ctx context.Context, req ValidateRequest) (usps.StandardizedAddress, error)
}

type service struct {
	carrier Standardizer
}

func NewService(carrier Standardizer) Service {
	return &service{carrier: carrier}
}

// Validate standardizes one address. The carrier only accepts 5-digit ZIPs,
// so a ZIP+4 suffix is stripped before submission. This is a pure
// pass-through with no caching or retries.
func (s *service) Validate(ctx context.Context, req ValidateRequest) (usps.StandardizedAddress, error) {
	if s == nil || s.carrier == nil {
		return usps.StandardizedAddress{}, pkgerrors.New(pkgerrors.CodeDependency, "carrier client unavailable")
	}

	street := strings.TrimSpace(req.StreetAddress)
	if street == "" {
		return usps.StandardizedAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "street address is required").
			WithDetails(map[string]string{"field": "streetAddress"})
	}
	state := strings.ToUpper(strings.TrimSpace(req.State))
	if !statePattern.MatchString(state) {
		return usps.StandardizedAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "state must be a two letter code").
			WithDetails(map[string]string{"field": "state"})
	}
	zip := TrimZIPPlus4(req.ZIPCode)
	if zip == "" {
		return usps.StandardizedAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "zip code is required").
			WithDetails(map[string]string{"field": "zipCode"})
	}

	return s.carrier.StandardizeAddress(ctx, usps.AddressQuery{
		StreetAddress:    street,
		SecondaryAddress: strings.TrimSpace(req.SecondaryAddress),
		City:             strings.TrimSpace(req.City),
		State:            state,
		ZIPCode:          zip,
	})
}

// TrimZIPPlus4 reduces a ZIP+4 to its 5-digit form.
func TrimZIPPlus4(zip string) string {
	zip = strings.TrimSpace(zip)
	if idx := strings.IndexByte(zip, '-'); idx >= 0 {
		zip = zip[:idx]
	}
	return zip
}
