package shipping

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/prairiemarket/storefront-backend/pkg/config"
	"github.com/prairiemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/logger"
	"github.com/prairiemarket/storefront-backend/pkg/metrics"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

const (
	minWeight    = 0.1
	maxWeight    = 70.0
	minDimension = 1.0
	maxDimension = 108.0
	maxGirth     = 130.0

	opQuoteAll   = "quote_all"
	opQuoteClass = "quote_class"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Carrier is the rate-search surface the aggregator consumes.
type Carrier interface {
	Quote(ctx context.Context, req usps.QuoteRequest) ([]usps.RateOption, error)
}

type Service interface {
	GetRates(ctx context.Context, req RatesRequest) (RatesResult, error)
}

type service struct {
	carrier     Carrier
	cache       *RateCache
	log         *logger.Logger
	metrics     *metrics.ShippingMetrics
	originZIP   string
	classes     []enums.MailClass
	callTimeout time.Duration
	now         func() time.Time
}

func NewService(carrier Carrier, cache *RateCache, log *logger.Logger, m *metrics.ShippingMetrics, cfg config.ShippingConfig, callTimeout time.Duration) Service {
	return &service{
		carrier:     carrier,
		cache:       cache,
		log:         log,
		metrics:     m,
		originZIP:   cfg.OriginZIP,
		classes:     cfg.FallbackMailClasses(),
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// GetRates prices one package for one destination. Validation failures never
// reach the carrier. A fresh cache entry short-circuits the call entirely.
// Otherwise the aggregator tries one unscoped quote for every service tier at
// once, and only when that yields nothing fans out one quote per mail class,
// tolerating individual class failures as long as at least one succeeds.
func (s *service) GetRates(ctx context.Context, req RatesRequest) (RatesResult, error) {
	if s == nil || s.carrier == nil {
		return RatesResult{}, pkgerrors.New(pkgerrors.CodeDependency, "carrier client unavailable")
	}
	if err := validateRequest(req); err != nil {
		return RatesResult{}, err
	}

	key := Key(s.originZIP, req.DestinationZIP, req.CartID)
	if rates, degraded, fetchedAt, ok := s.cache.Get(key); ok {
		s.metrics.IncCacheHit()
		return RatesResult{
			OriginZIP:      s.originZIP,
			DestinationZIP: req.DestinationZIP,
			Rates:          rates,
			Degraded:       degraded,
			FromCache:      true,
			FetchedAt:      fetchedAt,
		}, nil
	}
	s.metrics.IncCacheMiss()

	rates, degraded, err := s.fetchRates(ctx, req)
	if err != nil {
		return RatesResult{}, err
	}

	rates = dedupeByClass(ctx, s.log, rates)
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].PriceCents < rates[j].PriceCents
	})

	s.cache.Put(key, rates, degraded)
	return RatesResult{
		OriginZIP:      s.originZIP,
		DestinationZIP: req.DestinationZIP,
		Rates:          rates,
		Degraded:       degraded,
		FetchedAt:      s.now(),
	}, nil
}

func (s *service) fetchRates(ctx context.Context, req RatesRequest) ([]usps.RateOption, bool, error) {
	quote := usps.QuoteRequest{
		OriginZIP:      s.originZIP,
		DestinationZIP: req.DestinationZIP,
		Weight:         req.Package.Weight,
		Length:         req.Package.Length,
		Width:          req.Package.Width,
		Height:         req.Package.Height,
	}

	rates, primaryErr := s.quoteOnce(ctx, opQuoteAll, quote)
	if primaryErr == nil && len(rates) > 0 {
		return rates, false, nil
	}
	if primaryErr != nil {
		s.log.Warn(ctx, "unscoped rate call failed, falling back to per-class calls")
	}

	merged, failures := s.fanOut(ctx, quote)
	if len(merged) == 0 {
		combined := multierr.Combine(append([]error{primaryErr}, failures...)...)
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeRateUnavailable, combined, "all rate acquisition attempts failed")
	}
	return merged, len(failures) > 0, nil
}

// fanOut issues one quote per supported mail class concurrently. Each call
// carries its own error boundary so a stuck or failing class only shrinks
// the result set.
func (s *service) fanOut(ctx context.Context, quote usps.QuoteRequest) ([]usps.RateOption, []error) {
	type classResult struct {
		class   enums.MailClass
		options []usps.RateOption
		err     error
	}

	results := make([]classResult, len(s.classes))
	var wg sync.WaitGroup
	for i, class := range s.classes {
		wg.Add(1)
		go func(idx int, mailClass enums.MailClass) {
			defer wg.Done()
			scoped := quote
			scoped.MailClass = mailClass
			options, err := s.quoteOnce(ctx, opQuoteClass, scoped)
			results[idx] = classResult{class: mailClass, options: options, err: err}
		}(i, class)
	}
	wg.Wait()

	var merged []usps.RateOption
	var failures []error
	for _, result := range results {
		if result.err != nil {
			classCtx := s.log.WithMailClass(ctx, result.class.String())
			s.log.Warn(classCtx, "per-class rate call failed")
			failures = append(failures, fmt.Errorf("%s: %w", result.class, result.err))
			continue
		}
		if len(result.options) > 0 {
			merged = append(merged, result.options[0])
		}
	}
	return merged, failures
}

func (s *service) quoteOnce(ctx context.Context, operation string, quote usps.QuoteRequest) ([]usps.RateOption, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	started := s.now()
	options, err := s.carrier.Quote(ctx, quote)
	s.metrics.ObserveCallDuration(operation, s.now().Sub(started))
	if err != nil {
		s.metrics.IncCallFailure(operation, quote.MailClass.String())
		return nil, err
	}
	s.metrics.IncCallSuccess(operation, quote.MailClass.String())
	return options, nil
}

// dedupeByClass keeps the first option seen for each mail class. Duplicates
// can appear when the carrier repeats a tier across option blocks.
func dedupeByClass(ctx context.Context, log *logger.Logger, rates []usps.RateOption) []usps.RateOption {
	seen := make(map[enums.MailClass]bool, len(rates))
	deduped := rates[:0]
	for _, rate := range rates {
		if seen[rate.MailClass] {
			log.Warn(log.WithMailClass(ctx, rate.MailClass.String()), "dropping duplicate rate option")
			continue
		}
		seen[rate.MailClass] = true
		deduped = append(deduped, rate)
	}
	return deduped
}

func validateRequest(req RatesRequest) error {
	if !zipPattern.MatchString(req.DestinationZIP) {
		return pkgerrors.New(pkgerrors.CodeValidation, "destination zip must be 5 digits or zip+4").
			WithDetails(map[string]string{"field": "destinationZip"})
	}
	pkg := req.Package
	if pkg.Weight < minWeight || pkg.Weight > maxWeight {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("weight must be between %.1f and %.0f pounds", minWeight, maxWeight)).
			WithDetails(map[string]string{"field": "weight"})
	}
	for field, value := range map[string]float64{
		"length": pkg.Length,
		"width":  pkg.Width,
		"height": pkg.Height,
	} {
		if value < minDimension || value > maxDimension {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s must be between %.0f and %.0f inches", field, minDimension, maxDimension)).
				WithDetails(map[string]string{"field": field})
		}
	}
	if pkg.Girth() > maxGirth {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("length plus girth must not exceed %.0f inches", maxGirth)).
			WithDetails(map[string]string{"field": "dimensions"})
	}
	return nil
}
