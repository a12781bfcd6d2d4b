package controllers

import (
	"net/http"

	"github.com/prairiemarket/storefront-backend/api/responses"
	"github.com/prairiemarket/storefront-backend/api/validators"
	"github.com/prairiemarket/storefront-backend/internal/address"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
)

type validateAddressPayload struct {
	StreetAddress    string `json:"streetAddress" validate:"required"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state" validate:"required,len=2"`
	ZipCode          string `json:"zipCode" validate:"required"`
}

// ValidateAddress standardizes a customer address against carrier records.
func ValidateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		var payload validateAddressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		standardized, err := svc.Validate(ctx, address.ValidateRequest{
			StreetAddress:    validators.SanitizeString(payload.StreetAddress, 120),
			SecondaryAddress: validators.SanitizeString(payload.SecondaryAddress, 120),
			City:             validators.SanitizeString(payload.City, 60),
			State:            validators.SanitizeString(payload.State, 2),
			ZIPCode:          validators.SanitizeString(payload.ZipCode, 10),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, standardized)
	}
}
