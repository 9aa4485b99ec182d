package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/metrics"
	"benritz/giltmonitor/internal/pricing"
	"benritz/giltmonitor/internal/store"
	"benritz/giltmonitor/internal/types"
)

var ErrNoGilts = errors.New("no gilts available from configured sources")

const DefaultPriceTTL = 10 * time.Minute

// Quoter resolves a clean price for each gilt.
type Quoter interface {
	CleanPrices(ctx context.Context, gilts []*types.Gilt, now time.Time) map[string]collect.Quote
}

// PriceEntry is the cached pricing of one gilt at the last refresh.
type PriceEntry struct {
	CleanPrice float64
	DirtyPrice float64
	GrossYield *float64
	Source     string
	Timestamp  time.Time
}

type priceCache struct {
	timestamp time.Time
	data      map[string]PriceEntry
}

// Monitor keeps the gilt list and a cache of prices and gross yields fresh, and
// answers quote requests from them.
type Monitor struct {
	store    *store.Store
	lister   collect.Collector
	quoter   Quoter
	logger   *log.Logger
	now      func() time.Time
	ttl      time.Duration
	taxRates []float64

	// OnPrices is called with a snapshot after every successful price refresh.
	OnPrices func(ctx context.Context, snapshot *collect.Snapshot)

	refreshMu sync.Mutex

	mu    sync.RWMutex
	cache priceCache
}

type Options struct {
	Logger   *log.Logger
	Now      func() time.Time
	TTL      time.Duration
	TaxRates []float64
}

func New(s *store.Store, lister collect.Collector, quoter Quoter, opts Options) *Monitor {
	m := &Monitor{
		store:    s,
		lister:   lister,
		quoter:   quoter,
		logger:   opts.Logger,
		now:      opts.Now,
		ttl:      opts.TTL,
		taxRates: opts.TaxRates,
		cache:    priceCache{data: map[string]PriceEntry{}},
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard, "", 0)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.ttl <= 0 {
		m.ttl = DefaultPriceTTL
	}
	if m.taxRates == nil {
		m.taxRates = []float64{0, 0.2, 0.4, 0.45}
	}
	metrics.SetGiltsListed(s.Len())
	return m
}

func (m *Monitor) Store() *store.Store {
	return m.store
}

// LastUpdated returns the time of the last price refresh, zero if prices were never fetched.
func (m *Monitor) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.timestamp
}

// Price returns the cached entry for an ISIN.
func (m *Monitor) Price(isin string) (PriceEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.cache.data[isin]
	return e, ok
}

// RefreshPrices fetches clean prices for every listed gilt and replaces the cache with
// their dirty prices and gross yields. The previous cache is kept on failure.
func (m *Monitor) RefreshPrices(ctx context.Context) (err error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	start := time.Now()
	defer func() { metrics.ObserveRefresh(metrics.RefreshPrices, err, time.Since(start)) }()

	gilts := m.store.Gilts()
	now := m.now()
	quotes := m.quoter.CleanPrices(ctx, gilts, now)

	if err := ctx.Err(); err != nil {
		m.logger.Printf("price refresh failed: %v", err)
		return err
	}

	data := make(map[string]PriceEntry, len(gilts))
	bySource := map[string]int{}

	for _, g := range gilts {
		terms, err := g.Terms()
		if err != nil {
			m.logger.Printf("skipping %s: %v", g.ISIN, err)
			continue
		}

		q, ok := quotes[g.ISIN]
		if !ok {
			q = collect.Quote{CleanPrice: 100, Source: collect.SourceOffline, Timestamp: now}
		}

		clean := pricing.Round(q.CleanPrice, 3)
		dirty := pricing.DirtyPrice(terms, clean, now)

		entry := PriceEntry{
			CleanPrice: clean,
			DirtyPrice: dirty,
			Source:     q.Source,
			Timestamp:  now,
		}
		if y, ok := pricing.YieldToMaturity(terms, dirty, 0, now); ok {
			entry.GrossYield = &y
		} else {
			metrics.IncYieldMissing()
		}

		data[g.ISIN] = entry
		bySource[q.Source]++
	}

	m.mu.Lock()
	m.cache = priceCache{timestamp: now, data: data}
	m.mu.Unlock()

	metrics.SetPrices(now, bySource)
	m.logger.Printf("Prices refreshed at %s", now.UTC().Format(time.RFC3339))

	if m.OnPrices != nil {
		m.OnPrices(ctx, m.Snapshot(0))
	}

	return nil
}

// EnsureFresh refreshes prices when none were fetched yet or the cache is older than the TTL.
func (m *Monitor) EnsureFresh(ctx context.Context) error {
	last := m.LastUpdated()
	if last.IsZero() || m.now().Sub(last) > m.ttl {
		return m.RefreshPrices(ctx)
	}
	return nil
}

// RefreshGilts replaces the gilt list with the one currently listed by the source, then
// refreshes prices.
func (m *Monitor) RefreshGilts(ctx context.Context) (result store.UpdateResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRefresh(metrics.RefreshList, err, time.Since(start)) }()

	collected, err := m.lister.Collect(ctx, m.now())
	if err != nil {
		return store.UpdateResult{}, err
	}

	result, err = m.store.Update(collected.Gilts)
	if err != nil {
		return store.UpdateResult{}, err
	}

	metrics.SetGiltsListed(result.Total)
	m.logger.Printf("Fetched %d gilts from %s; added %d new.", result.Total, m.lister.Source(), result.Added)

	if err := m.RefreshPrices(ctx); err != nil {
		return result, err
	}

	return result, nil
}

// Snapshot values every cached gilt at the last refresh time with coupons taxed at taxRate.
func (m *Monitor) Snapshot(taxRate float64) *collect.Snapshot {
	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()

	snapshot := &collect.Snapshot{
		Source: "Monitor",
		Date:   cache.timestamp,
		Rows:   []*types.PricedGilt{},
	}

	for _, g := range m.store.Gilts() {
		entry, ok := cache.data[g.ISIN]
		if !ok {
			continue
		}
		terms, err := g.Terms()
		if err != nil {
			continue
		}

		v := pricing.Value(terms, entry.CleanPrice, cache.timestamp, taxRate)

		snapshot.Rows = append(snapshot.Rows, &types.PricedGilt{
			Source:       snapshot.Source,
			ISIN:         g.ISIN,
			Code:         g.Code,
			Name:         g.Name,
			Maturity:     terms.MaturityDate,
			CouponRate:   g.CouponRate,
			ValuedAt:     cache.timestamp,
			TaxRate:      taxRate,
			CleanPrice:   v.CleanPrice,
			DirtyPrice:   v.DirtyPrice,
			GrossYield:   v.GrossYield,
			NetYield:     v.NetYield,
			PriceQuality: entry.Source,
		})
	}

	return snapshot
}
