package collect

import (
	"benritz/giltmonitor/internal/types"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourceStored  = "Stored"
	SourceOffline = "Offline"
)

// PriceSource supplies clean prices keyed by ISIN.
type PriceSource interface {
	Prices(ctx context.Context, date time.Time) (map[string]float64, error)
	Source() string
}

// Quote is the clean price chosen for a gilt and where it came from.
type Quote struct {
	CleanPrice float64
	Source     string
	Timestamp  time.Time
}

// Quoter resolves a clean price for every gilt from its sources in priority order,
// falling back to the stored list price and finally a synthetic offline price.
type Quoter struct {
	Sources []PriceSource
	Logger  *log.Logger
}

func NewQuoter(logger *log.Logger, sources ...PriceSource) *Quoter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Quoter{Sources: sources, Logger: logger}
}

func (q *Quoter) CleanPrices(ctx context.Context, gilts []*types.Gilt, now time.Time) map[string]Quote {
	fetched := make([]map[string]float64, 0, len(q.Sources))
	for _, src := range q.Sources {
		prices, err := src.Prices(ctx, now)
		if err != nil {
			q.Logger.Printf("%s price fetch failed, skipping: %v", src.Source(), err)
			prices = nil
		}
		fetched = append(fetched, prices)
	}

	quotes := make(map[string]Quote, len(gilts))
	for _, g := range gilts {
		quotes[g.ISIN] = q.quote(g, fetched, now)
	}

	return quotes
}

func (q *Quoter) quote(g *types.Gilt, fetched []map[string]float64, now time.Time) Quote {
	for i, prices := range fetched {
		price, ok := prices[g.ISIN]
		if !ok && g.Code != "" {
			price, ok = prices[g.Code]
		}
		if ok && price > 0 {
			return Quote{CleanPrice: price, Source: q.Sources[i].Source(), Timestamp: now}
		}
	}

	if g.CleanPrice != nil && *g.CleanPrice > 0 {
		return Quote{CleanPrice: *g.CleanPrice, Source: SourceStored, Timestamp: now}
	}

	return Quote{CleanPrice: OfflinePrice(g, now), Source: SourceOffline, Timestamp: now}
}

// OfflinePrice builds a deterministic synthetic clean price near par from the coupon,
// time to maturity and an ISIN derived offset, so the service still prices gilts
// without any live data.
func OfflinePrice(g *types.Gilt, now time.Time) float64 {
	years := 0.0
	if maturity, err := types.ParseDate(g.Maturity); err == nil {
		years = math.Max(0, maturity.Sub(now).Hours()/24/365.25)
	}

	couponPct := g.CouponRate * 100
	drift := math.Max(-3, math.Min(3, (couponPct-2)*0.6))
	timeDecay := -0.35 * math.Tanh(years/10)

	synthetic := 100 + drift + timeDecay + isinOffset(g.ISIN)
	synthetic = decimal.NewFromFloat(synthetic).Round(2).InexactFloat64()

	return math.Max(60, math.Min(140, synthetic))
}

// isinOffset maps an ISIN to a stable offset in [-0.5, 0.5).
func isinOffset(isin string) float64 {
	sum := md5.Sum([]byte(isin))
	n, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:6], 16, 64)
	return float64(n%1000)/1000 - 0.5
}
