package controllers

import (
	"net/http"

	"github.com/prairiemarket/storefront-backend/api/responses"
	"github.com/prairiemarket/storefront-backend/api/validators"
	"github.com/prairiemarket/storefront-backend/internal/shipping"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

type rateItemPayload struct {
	Quantity int     `json:"quantity" validate:"gte=0"`
	Weight   float64 `json:"weight,omitempty" validate:"gte=0"`
	Length   float64 `json:"length,omitempty" validate:"gte=0"`
	Width    float64 `json:"width,omitempty" validate:"gte=0"`
	Height   float64 `json:"height,omitempty" validate:"gte=0"`
}

type calculateRatesPayload struct {
	DestinationZip string            `json:"destinationZip" validate:"required"`
	Weight         float64           `json:"weight,omitempty" validate:"gte=0"`
	Length         float64           `json:"length,omitempty" validate:"gte=0"`
	Width          float64           `json:"width,omitempty" validate:"gte=0"`
	Height         float64           `json:"height,omitempty" validate:"gte=0"`
	Items          []rateItemPayload `json:"items,omitempty" validate:"dive"`
	CartID         string            `json:"cartId,omitempty"`
}

type rateOptionView struct {
	MailClass         string `json:"mailClass"`
	Service           string `json:"service"`
	PriceCents        int64  `json:"priceCents"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	Zone              string `json:"zone,omitempty"`
}

type ratesView struct {
	OriginZip      string           `json:"originZip"`
	DestinationZip string           `json:"destinationZip"`
	Rates          []rateOptionView `json:"rates"`
	Degraded       bool             `json:"degraded,omitempty"`
	FromCache      bool             `json:"fromCache,omitempty"`
}

// CalculateRates prices a package for a destination. Callers either supply
// explicit weight and dimensions or a list of cart items the estimator
// collapses into a single box. Explicit package fields win over items.
func CalculateRates(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var payload calculateRatesPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pkg := packageFromPayload(payload)

		if payload.CartID != "" && logg != nil {
			ctx = logg.WithCartID(ctx, payload.CartID)
		}

		result, err := svc.GetRates(ctx, shipping.RatesRequest{
			DestinationZIP: validators.SanitizeString(payload.DestinationZip, 10),
			Package:        pkg,
			CartID:         validators.SanitizeString(payload.CartID, 64),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, ratesViewFrom(result))
	}
}

func packageFromPayload(payload calculateRatesPayload) shipping.PackageDescriptor {
	if payload.Weight > 0 || payload.Length > 0 || payload.Width > 0 || payload.Height > 0 {
		return shipping.FillPackageDefaults(shipping.PackageDescriptor{
			Weight: payload.Weight,
			Length: payload.Length,
			Width:  payload.Width,
			Height: payload.Height,
		})
	}

	items := make([]shipping.LineItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, shipping.LineItem{
			Quantity: item.Quantity,
			Weight:   item.Weight,
			Length:   item.Length,
			Width:    item.Width,
			Height:   item.Height,
		})
	}
	return shipping.EstimatePackage(items)
}

func ratesViewFrom(result shipping.RatesResult) ratesView {
	view := ratesView{
		OriginZip:      result.OriginZIP,
		DestinationZip: result.DestinationZIP,
		Rates:          make([]rateOptionView, 0, len(result.Rates)),
		Degraded:       result.Degraded,
		FromCache:      result.FromCache,
	}
	for _, rate := range result.Rates {
		view.Rates = append(view.Rates, optionView(rate))
	}
	return view
}

func optionView(rate usps.RateOption) rateOptionView {
	return rateOptionView{
		MailClass:         rate.MailClass.String(),
		Service:           rate.MailClass.DisplayName(),
		PriceCents:        rate.PriceCents,
		EstimatedDelivery: rate.EstimatedDelivery,
		Zone:              rate.Zone,
	}
}
