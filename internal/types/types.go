package types

import (
	"fmt"
	"time"
)

// DateFormat is the layout used for maturity dates in the gilt list and API.
const DateFormat = "2006-01-02"

type BondType string

var (
	UKGilt BondType = "UK Gilt"
)

// BondTerms are the static terms the valuation engine works from.
//
//	CouponRate:   Annual coupon as a fraction (0.0425 for 4.25%).
//	MaturityDate: Redemption date, UTC midnight.
type BondTerms struct {
	CouponRate   float64
	MaturityDate time.Time
}

// Gilt is a conventional gilt as listed by a price source and persisted in the gilt list.
type Gilt struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	ISIN         string   `json:"isin"`
	Maturity     string   `json:"maturity"`
	CouponRate   float64  `json:"couponRate"`
	CouponMonths [2]int   `json:"couponMonths"`
	CleanPrice   *float64 `json:"cleanPrice"`
}

func NewUKGilt(isin string, maturity time.Time, couponRate float64) *Gilt {
	maturity = Date(maturity)
	return &Gilt{
		ISIN:         isin,
		Maturity:     maturity.Format(DateFormat),
		CouponRate:   couponRate,
		CouponMonths: CouponMonths(maturity),
	}
}

// Terms parses the gilt's maturity and returns its bond terms.
func (g *Gilt) Terms() (BondTerms, error) {
	if g == nil {
		return BondTerms{}, ErrNilBond
	}
	if g.CouponRate < 0 {
		return BondTerms{}, ErrInvalidCoupon
	}
	maturity, err := ParseDate(g.Maturity)
	if err != nil {
		return BondTerms{}, ErrInvalidMaturityDate
	}
	return BondTerms{CouponRate: g.CouponRate, MaturityDate: maturity}, nil
}

// CouponMonths returns the two coupon months (1-12) of a semi-annual bond maturing on the given date.
func CouponMonths(maturity time.Time) [2]int {
	m := int(maturity.Month())
	return [2]int{m, (m+5)%12 + 1}
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	ts, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// Cashflow is a single dated amount. Outlays are negative.
type Cashflow struct {
	Amount float64
	Date   time.Time
}

// Valuation is the result of pricing a bond at a valuation date.
// A nil yield means no yield could be solved for.
type Valuation struct {
	CleanPrice      float64
	AccruedInterest float64
	DirtyPrice      float64
	GrossYield      *float64
	NetYield        *float64
}

// PricedGilt is a snapshot row of a valued gilt.
type PricedGilt struct {
	Source       string    `parquet:"source"`
	ISIN         string    `parquet:"isin"`
	Code         string    `parquet:"code"`
	Name         string    `parquet:"name"`
	Maturity     time.Time `parquet:"maturity,timestamp(millisecond)"`
	CouponRate   float64   `parquet:"coupon_rate"`
	ValuedAt     time.Time `parquet:"valued_at,timestamp(millisecond)"`
	TaxRate      float64   `parquet:"tax_rate"`
	CleanPrice   float64   `parquet:"clean_price"`
	DirtyPrice   float64   `parquet:"dirty_price"`
	GrossYield   *float64  `parquet:"gross_yield,optional"`
	NetYield     *float64  `parquet:"net_yield,optional"`
	PriceQuality string    `parquet:"price_quality"`
}

var (
	ErrNilBond                = fmt.Errorf("bond is nil")
	ErrDataUnavailable        = fmt.Errorf("data unavailable")
	ErrUnsupportedBond        = fmt.Errorf("unsupported bond")
	ErrInvalidISIN            = fmt.Errorf("invalid isin")
	ErrInvalidCoupon          = fmt.Errorf("invalid coupon")
	ErrInvalidDesc            = fmt.Errorf("invalid description")
	ErrInvalidMaturityDate    = fmt.Errorf("invalid maturity date")
	ErrInvalidCleanPrice      = fmt.Errorf("invalid clean price")
	ErrInvalidTaxRate         = fmt.Errorf("invalid tax rate")
	ErrMaturityDateBeforeDate = fmt.Errorf("maturity date is before valuation date")
)
