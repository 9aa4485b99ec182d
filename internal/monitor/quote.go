package monitor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"benritz/giltmonitor/internal/pricing"
	"benritz/giltmonitor/internal/types"
)

// Query selects gilts and the tax rate for a quote request. Coupon bounds are in percent.
type Query struct {
	TaxRate      float64
	CouponMin    *float64
	CouponMax    *float64
	MaturityFrom *time.Time
	MaturityTo   *time.Time
}

type GiltQuote struct {
	Name               string   `json:"name"`
	Code               string   `json:"code"`
	ISIN               string   `json:"isin"`
	Maturity           string   `json:"maturity"`
	MaturityDisplay    string   `json:"maturityDisplay"`
	TimeToMaturity     string   `json:"timeToMaturity"`
	TimeToMaturityDays int      `json:"timeToMaturityDays"`
	CleanPrice         float64  `json:"cleanPrice"`
	DirtyPrice         float64  `json:"dirtyPrice"`
	GrossYTM           *float64 `json:"grossYTM"`
	NetYTM             *float64 `json:"netYTM"`
	CouponRate         float64  `json:"couponRate"`
	PriceSource        string   `json:"priceSource"`
}

type QuoteResponse struct {
	LastUpdated *time.Time  `json:"lastUpdated"`
	Count       int         `json:"count"`
	Gilts       []GiltQuote `json:"gilts"`
	TaxRate     float64     `json:"taxRate"`
}

// TaxRate returns requested if it is one of the allowed rates, otherwise 0.
func (m *Monitor) TaxRate(requested float64) float64 {
	if slices.Contains(m.taxRates, requested) {
		return requested
	}
	return 0
}

func (q Query) matches(g *types.Gilt, terms types.BondTerms) bool {
	coupon := g.CouponRate * 100
	if q.CouponMin != nil && coupon < *q.CouponMin {
		return false
	}
	if q.CouponMax != nil && coupon > *q.CouponMax {
		return false
	}
	if q.MaturityFrom != nil && terms.MaturityDate.Before(*q.MaturityFrom) {
		return false
	}
	if q.MaturityTo != nil && terms.MaturityDate.After(*q.MaturityTo) {
		return false
	}
	return true
}

// Quote values the gilts matching q at the current time. Cached clean and dirty prices
// and gross yields are used when present; the net yield is always computed for the
// resolved tax rate.
func (m *Monitor) Quote(ctx context.Context, q Query) (*QuoteResponse, error) {
	if m.store.Len() == 0 {
		if _, err := m.RefreshGilts(ctx); err != nil {
			m.logger.Printf("Initial gilt list refresh failed during request: %v", err)
		}
	}

	taxRate := m.TaxRate(q.TaxRate)

	if err := m.EnsureFresh(ctx); err != nil {
		m.logger.Printf("price refresh failed during request: %v", err)
	}

	now := m.now()

	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()

	rows := []GiltQuote{}
	for _, g := range m.store.Gilts() {
		terms, err := g.Terms()
		if err != nil {
			continue
		}
		if !q.matches(g, terms) {
			continue
		}
		rows = append(rows, m.quoteGilt(g, terms, cache.data[g.ISIN], taxRate, now))
	}

	if len(rows) == 0 {
		return nil, ErrNoGilts
	}

	resp := &QuoteResponse{
		Count:   len(rows),
		Gilts:   rows,
		TaxRate: taxRate,
	}
	if !cache.timestamp.IsZero() {
		ts := cache.timestamp
		resp.LastUpdated = &ts
	}

	return resp, nil
}

func (m *Monitor) quoteGilt(g *types.Gilt, terms types.BondTerms, entry PriceEntry, taxRate float64, now time.Time) GiltQuote {
	cached := !entry.Timestamp.IsZero()

	clean, dirty, gross, source := 100.0, 0.0, entry.GrossYield, entry.Source
	if cached {
		clean, dirty = entry.CleanPrice, entry.DirtyPrice
	} else {
		dirty = pricing.DirtyPrice(terms, clean, now)
		source = "Par"
		if y, ok := pricing.YieldToMaturity(terms, dirty, 0, now); ok {
			gross = &y
		}
	}

	var net *float64
	if y, ok := pricing.YieldToMaturity(terms, dirty, taxRate, now); ok {
		net = &y
	}

	days, years, remaining := pricing.TimeToMaturity(now, terms.MaturityDate)

	return GiltQuote{
		Name:               g.Name,
		Code:               g.Code,
		ISIN:               g.ISIN,
		Maturity:           g.Maturity,
		MaturityDisplay:    terms.MaturityDate.Format("02-Jan-06"),
		TimeToMaturity:     fmt.Sprintf("%dy %dd", years, remaining),
		TimeToMaturityDays: days,
		CleanPrice:         pricing.Round(clean, 3),
		DirtyPrice:         pricing.Round(dirty, 3),
		GrossYTM:           roundYield(gross),
		NetYTM:             roundYield(net),
		CouponRate:         g.CouponRate,
		PriceSource:        source,
	}
}

func roundYield(y *float64) *float64 {
	if y == nil {
		return nil
	}
	r := pricing.Round(*y, 3)
	return &r
}
