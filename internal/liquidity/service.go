// Package liquidity produces the Magma liquidity purchase power chart: for a
// range of USD budgets, how much inbound liquidity the marketplace's enabled
// offers can buy, split into Tor-eligible offers and the whole order book.
// Rendered charts are cached so repeated requests do not hammer the Amboss
// API.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"

	"github.com/google/uuid"
)

// ErrNoCachedChart indicates that the cache holds no fresh chart.
var ErrNoCachedChart = errors.New("no cached chart")

const (
	defaultCacheTTL     = time.Hour
	defaultFetchWorkers = 8

	// The budget grid: $0 to $500 in $25 steps.
	budgetMaxUSD  = 500
	budgetStepUSD = 25
)

// ChartCache stores the most recently rendered chart PNG.
type ChartCache interface {
	// LoadChart returns the cached PNG, or ErrNoCachedChart when the cache
	// is empty or expired.
	LoadChart(ctx context.Context) ([]byte, error)

	// SaveChart stores the PNG with the given time-to-live.
	SaveChart(ctx context.Context, png []byte, ttl time.Duration) error
}

// ProgressFunc receives human-readable stage updates while a chart is being
// generated. It may be nil.
type ProgressFunc func(stage string)

// Service renders the liquidity chart.
type Service interface {
	// Chart returns the chart PNG, generating and caching it when no fresh
	// cached copy exists. progress may be nil.
	Chart(ctx context.Context, progress ProgressFunc) ([]byte, error)
}

type service struct {
	offers OfferSource
	price  PriceSource
	cache  ChartCache

	cacheTTL     time.Duration
	fetchWorkers int
}

var _ Service = (*service)(nil)

// Chart implements the Service interface.
func (s *service) Chart(ctx context.Context, progress ProgressFunc) ([]byte, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	if png, err := s.cache.LoadChart(ctx); err == nil {
		report("Using cached chart...")
		return png, nil
	} else if !errors.Is(err, ErrNoCachedChart) {
		// Cache trouble is not fatal; fall through to regeneration.
		logger.Warn(ctx, "chart cache read failed", "error", err)
	}

	jobID := uuid.Must(uuid.NewV7()).String()
	logger.Info(ctx, "generating liquidity chart", "job_id", jobID)

	report("Fetching BTC/USD price...")
	btcUSD, err := s.price.BTCUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching BTC/USD price: %w", err)
	}

	report("Fetching enabled offers...")
	offerIDs, err := s.offers.ListEnabledOfferIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enabled offers: %w", err)
	}

	report(fmt.Sprintf("Fetching details for %d offers...", len(offerIDs)))
	offers := s.fetchOffers(ctx, offerIDs)

	report("Calculating purchase power...")
	input := buildChartInput(btcUSD, offers, report)

	report("Rendering chart...")
	png, err := renderChart(input)
	if err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}

	if err := s.cache.SaveChart(ctx, png, s.cacheTTL); err != nil {
		logger.Warn(ctx, "chart cache write failed", "job_id", jobID, "error", err)
	}

	logger.Info(ctx, "liquidity chart generated",
		"job_id", jobID,
		"offers", len(offers),
		"bytes", len(png),
	)

	return png, nil
}

// fetchOffers resolves offer details concurrently with a bounded worker
// pool. Offers whose fetch fails are logged and skipped so one bad offer
// never sinks the whole chart.
func (s *service) fetchOffers(ctx context.Context, offerIDs []string) []Offer {
	var (
		mu     sync.Mutex
		offers = make([]Offer, 0, len(offerIDs))

		wg  sync.WaitGroup
		ids = make(chan string)
	)

	for range s.fetchWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range ids {
				offer, err := s.offers.GetOffer(ctx, id)
				if err != nil {
					logger.Warn(ctx, "offer fetch failed", "offer_id", id, "error", err)
					continue
				}

				mu.Lock()
				offers = append(offers, offer)
				mu.Unlock()
			}
		}()
	}

	for _, id := range offerIDs {
		ids <- id
	}
	close(ids)
	wg.Wait()

	return offers
}

// buildChartInput runs the knapsack over the budget grid for both offer sets
// and converts the results to USD.
func buildChartInput(btcUSD float64, offers []Offer, report ProgressFunc) chartInput {
	eligible := torEligible(offers)

	input := chartInput{
		TorRestricted: len(offers) - len(eligible),
		TotalOffers:   len(offers),
	}

	for usd := 0; usd <= budgetMaxUSD; usd += budgetStepUSD {
		if usd%100 == 0 {
			report(fmt.Sprintf("Calculating liquidity for $%d...", usd))
		}

		budgetSats := usdToSats(float64(usd), btcUSD)

		torPlan := maxLiquidity(budgetSats, eligible)
		allPlan := maxLiquidity(budgetSats, offers)

		input.BudgetsUSD = append(input.BudgetsUSD, float64(usd))
		input.TorLiquidityUSD = append(input.TorLiquidityUSD, satsToUSD(torPlan.LiquiditySats, btcUSD))
		input.TorCostUSD = append(input.TorCostUSD, satsToUSD(torPlan.CostSats, btcUSD))
		input.AllLiquidityUSD = append(input.AllLiquidityUSD, satsToUSD(allPlan.LiquiditySats, btcUSD))
		input.AllCostUSD = append(input.AllCostUSD, satsToUSD(allPlan.CostSats, btcUSD))
	}

	return input
}

type config struct {
	cacheTTL     time.Duration
	fetchWorkers int
}

// Option customizes the service built by New.
type Option func(*config)

// New creates the liquidity chart service. By default the rendered chart is
// cached for one hour and offer details are fetched with 8 workers.
func New(os OfferSource, ps PriceSource, cc ChartCache, opts ...Option) *service {
	cfg := config{
		cacheTTL:     defaultCacheTTL,
		fetchWorkers: defaultFetchWorkers,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		offers:       os,
		price:        ps,
		cache:        cc,
		cacheTTL:     cfg.cacheTTL,
		fetchWorkers: cfg.fetchWorkers,
	}
}

// WithCacheTTL overrides how long a rendered chart stays fresh.
func WithCacheTTL(d time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = d
	}
}

// WithFetchWorkers overrides the offer detail fetch concurrency.
func WithFetchWorkers(n int) Option {
	return func(c *config) {
		c.fetchWorkers = n
	}
}
