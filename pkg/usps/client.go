package usps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prairiemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
)

const (
	productionBaseURL = "https://apis.usps.com"
	sandboxBaseURL    = "https://apis-tem.usps.com"

	ratesPath   = "/prices/v3/total-rates/search"
	addressPath = "/addresses/v3/address"

	errorBodyReadLimit int64 = 2048
)

var (
	errClientIDRequired     = errors.New("usps client id is required")
	errClientSecretRequired = errors.New("usps client secret is required")
)

// Client is the typed wrapper over the carrier pricing and address APIs.
// It performs no retries; callers own retry and fallback strategy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenSource
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the carrier base URL, typically for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithProduction selects the production carrier environment.
func WithProduction() Option {
	return func(c *Client) {
		c.baseURL = productionBaseURL
	}
}

// WithTimeout sets the per-call network timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the carrier client. The sandbox environment is the
// default; production is opt-in via WithProduction.
func NewClient(clientID, clientSecret string, opts ...Option) (*Client, error) {
	trimmedID := strings.TrimSpace(clientID)
	if trimmedID == "" {
		return nil, errClientIDRequired
	}
	trimmedSecret := strings.TrimSpace(clientSecret)
	if trimmedSecret == "" {
		return nil, errClientSecretRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    sandboxBaseURL,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	client.tokens = NewTokenSource(client.baseURL, trimmedID, trimmedSecret, client.httpClient, client.now)

	return client, nil
}

// Tokens exposes the token source, mainly for health checks and tests.
func (c *Client) Tokens() *TokenSource {
	if c == nil {
		return nil
	}
	return c.tokens
}

// Quote issues one rate-search call and returns the priced options. A
// request without a mail class asks for every available tier at once.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]RateOption, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "usps client not configured")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload := quotePayload{
		OriginZIPCode:      req.OriginZIP,
		DestinationZIPCode: req.DestinationZIP,
		Weight:             req.Weight,
		Length:             req.Length,
		Width:              req.Width,
		Height:             req.Height,
		MailClass:          string(req.MailClass),
		PriceType:          string(req.PriceType),
		MailingDate:        req.MailingDate,
	}
	if payload.PriceType == "" {
		payload.PriceType = string(enums.PriceTypeRetail)
	}
	if payload.MailingDate == "" {
		payload.MailingDate = c.now().Format("2006-01-02")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrier, err, "marshal quote request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ratesPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrier, err, "build quote request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrier, err, "execute quote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, carrierError(resp, "quote request failed")
	}

	var apiResp quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCarrier, err, "decode quote response")
	}

	return mapRateOptions(apiResp, req.MailClass), nil
}

// StandardizeAddress validates and corrects a postal address through the
// carrier address API. Pure pass-through: no caching, no retries.
func (c *Client) StandardizeAddress(ctx context.Context, query AddressQuery) (StandardizedAddress, error) {
	if c == nil {
		return StandardizedAddress{}, pkgerrors.New(pkgerrors.CodeDependency, "usps client not configured")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return StandardizedAddress{}, err
	}

	params := url.Values{}
	params.Set("streetAddress", query.StreetAddress)
	params.Set("state", query.State)
	if query.SecondaryAddress != "" {
		params.Set("secondaryAddress", query.SecondaryAddress)
	}
	if query.City != "" {
		params.Set("city", query.City)
	}
	if query.ZIPCode != "" {
		params.Set("ZIPCode", query.ZIPCode)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+addressPath+"?"+params.Encode(), nil)
	if err != nil {
		return StandardizedAddress{}, pkgerrors.Wrap(pkgerrors.CodeAddress, err, "build address request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return StandardizedAddress{}, pkgerrors.Wrap(pkgerrors.CodeAddress, err, "execute address request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StandardizedAddress{}, addressError(resp)
	}

	var apiResp addressResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return StandardizedAddress{}, pkgerrors.Wrap(pkgerrors.CodeAddress, err, "decode address response")
	}

	return StandardizedAddress{
		Firm:             apiResp.Firm,
		StreetAddress:    apiResp.Address.StreetAddress,
		SecondaryAddress: apiResp.Address.SecondaryAddress,
		City:             apiResp.Address.City,
		State:            apiResp.Address.State,
		ZIPCode:          apiResp.Address.ZIPCode,
		ZIPPlus4:         apiResp.Address.ZIPPlus4,
		DPVConfirmation:  apiResp.AdditionalInfo.DPVConfirmation,
		Business:         apiResp.AdditionalInfo.Business == "Y",
	}, nil
}

// mapRateOptions flattens the carrier response to one RateOption per option
// block. When the request was scoped to a mail class and the response omits
// it, the requested class is carried through.
func mapRateOptions(resp quoteResponse, requested enums.MailClass) []RateOption {
	options := make([]RateOption, 0, len(resp.RateOptions))
	for _, opt := range resp.RateOptions {
		mapped := RateOption{
			PriceCents: dollarsToCents(opt.TotalBasePrice),
			MailClass:  requested,
		}
		if len(opt.Rates) > 0 {
			first := opt.Rates[0]
			mapped.Description = first.Description
			mapped.Zone = first.Zone
			mapped.SKU = first.SKU
			mapped.EstimatedDelivery = first.EstimatedDelivery
			if first.MailClass != "" {
				mapped.MailClass = enums.MailClass(first.MailClass)
			}
		}
		options = append(options, mapped)
	}
	return options
}

// dollarsToCents converts the carrier's dollar amount into integer cents
// without accumulating float error.
func dollarsToCents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func carrierError(resp *http.Response, context string) error {
	status := resp.StatusCode
	message := upstreamMessage(resp)
	err := fmt.Errorf("status %d: %s", status, message)
	return pkgerrors.Wrap(pkgerrors.CodeCarrier, err, context).
		WithDetails(map[string]any{"status": status, "message": message})
}

func addressError(resp *http.Response) error {
	status := resp.StatusCode
	message := upstreamMessage(resp)
	err := fmt.Errorf("status %d: %s", status, message)
	return pkgerrors.Wrap(pkgerrors.CodeAddress, err, "address validation failed").
		WithDetails(map[string]any{"status": status, "message": message})
}

// upstreamMessage extracts the carrier's structured error message when the
// body carries one, falling back to the raw (truncated) body.
func upstreamMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	var parsed apiErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
