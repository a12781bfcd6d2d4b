package usps

import (
	"github.com/prairiemarket/storefront-backend/pkg/enums"
)

// QuoteRequest describes one rate-search call against the carrier pricing API.
// Leaving MailClass empty asks the carrier for every available service tier.
type QuoteRequest struct {
	OriginZIP      string
	DestinationZIP string
	Weight         float64 // pounds
	Length         float64 // inches
	Width          float64
	Height         float64
	MailClass      enums.MailClass
	PriceType      enums.PriceType
	MailingDate    string // YYYY-MM-DD, defaults to today
}

// RateOption is one priced service tier returned by the carrier.
// Prices are integer cents; the carrier responds in dollars and the
// conversion happens once, here at the client boundary.
type RateOption struct {
	MailClass         enums.MailClass
	Description       string
	PriceCents        int64
	EstimatedDelivery string
	Zone              string
	SKU               string
}

// AddressQuery is the input to the address standardization endpoint. The
// carrier accepts 5-digit ZIPs only; callers strip ZIP+4 suffixes first.
type AddressQuery struct {
	StreetAddress    string
	SecondaryAddress string
	City             string
	State            string
	ZIPCode          string
}

// StandardizedAddress is the carrier's canonical form of a postal address.
type StandardizedAddress struct {
	Firm             string `json:"firm,omitempty"`
	StreetAddress    string `json:"streetAddress"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZIPCode          string `json:"zipCode"`
	ZIPPlus4         string `json:"zipPlus4,omitempty"`
	DPVConfirmation  string `json:"dpvConfirmation,omitempty"`
	Business         bool   `json:"business,omitempty"`
}

// wire payloads

type quotePayload struct {
	OriginZIPCode      string  `json:"originZIPCode"`
	DestinationZIPCode string  `json:"destinationZIPCode"`
	Weight             float64 `json:"weight"`
	Length             float64 `json:"length"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	MailClass          string  `json:"mailClass,omitempty"`
	PriceType          string  `json:"priceType"`
	MailingDate        string  `json:"mailingDate"`
}

type quoteResponse struct {
	RateOptions []struct {
		TotalBasePrice float64 `json:"totalBasePrice"`
		Rates          []struct {
			Description       string  `json:"description"`
			Price             float64 `json:"price"`
			MailClass         string  `json:"mailClass"`
			Zone              string  `json:"zone"`
			SKU               string  `json:"SKU"`
			EstimatedDelivery string  `json:"estimatedDelivery"`
		} `json:"rates"`
	} `json:"rateOptions"`
}

type addressResponse struct {
	Firm    string `json:"firm"`
	Address struct {
		StreetAddress    string `json:"streetAddress"`
		SecondaryAddress string `json:"secondaryAddress"`
		City             string `json:"city"`
		State            string `json:"state"`
		ZIPCode          string `json:"ZIPCode"`
		ZIPPlus4         string `json:"ZIPPlus4"`
	} `json:"address"`
	AdditionalInfo struct {
		DPVConfirmation string `json:"DPVConfirmation"`
		Business        string `json:"business"`
	} `json:"additionalInfo"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
