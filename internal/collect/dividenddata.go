package collect

import (
	"benritz/giltmonitor/internal/types"
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

var (
	SourceDividendData = "DividendData"

	DefaultDividendDataURL = "https://www.dividenddata.co.uk/uk-gilts-prices-yields.py"
)

// DividendDataCollector scrapes the daily gilt price table. Rows carry the ticker
// code but no ISIN, so its prices are matched to gilts by code.
type DividendDataCollector struct {
	URL       string
	UserAgent string
}

func NewDividendDataCollector(url string) *DividendDataCollector {
	if url == "" {
		url = DefaultDividendDataURL
	}
	return &DividendDataCollector{
		URL:       url,
		UserAgent: DefaultUserAgent,
	}
}

func (c *DividendDataCollector) Collect(ctx context.Context, date time.Time) (*CollectedGilts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x := colly.NewCollector(colly.UserAgent(c.UserAgent))

	// check page date matches requested date
	// the page is updated daily, but the data may not be available yet
	DATE_PREFIX := "Last updated: "
	var dataTs time.Time

	x.OnHTML("label", func(e *colly.HTMLElement) {
		if strings.HasPrefix(e.Text, DATE_PREFIX) {
			s := strings.TrimSpace(strings.TrimPrefix(e.Text, DATE_PREFIX))
			dataTs, _ = time.Parse("02 Jan 2006", s)
		}
	})

	collected := NewCollectedGilts(SourceDividendData, date)

	x.OnHTML("#mainbody tr", func(e *colly.HTMLElement) {
		if cg := c.readGilt(e); cg != nil {
			collected.AddGilt(cg)
		}
	})

	if err := x.Visit(c.URL); err != nil {
		return nil, err
	}

	if dataTs.IsZero() || !dataTs.Equal(types.Date(date)) {
		return nil, types.ErrDataUnavailable
	}

	return collected, nil
}

func (c *DividendDataCollector) Source() string {
	return SourceDividendData
}

// Prices returns the clean prices of the day's table keyed by ticker code.
func (c *DividendDataCollector) Prices(ctx context.Context, date time.Time) (map[string]float64, error) {
	collected, err := c.Collect(ctx, date)
	if err != nil {
		return nil, err
	}
	return collected.CleanPrices(), nil
}

var (
	DD_COL_TICKER            = 0
	DD_COL_DESC              = 1
	DD_COL_COUPON            = 2
	DD_COL_MATURITY_DATE     = 3
	DD_COL_MATURITY_DURATION = 4
	DD_COL_PRICE             = 5
	DD_MIN_COLS              = 6
)

func (c *DividendDataCollector) readGilt(e *colly.HTMLElement) *CollectedGilt {
	cells := []string{}
	e.ForEach("td", func(_ int, el *colly.HTMLElement) {
		cells = append(cells, strings.TrimSpace(el.Text))
	})
	if len(cells) < DD_MIN_COLS {
		return nil
	}

	g := &types.Gilt{
		Code: cells[DD_COL_TICKER],
		Name: NormalizeFractions(cells[DD_COL_DESC]),
	}
	if unsupported(g.Name) {
		return nil
	}

	cg := &CollectedGilt{Gilt: g}

	if g.Code == "" {
		cg.SetError(types.ErrInvalidDesc)
	}
	if g.Name == "" {
		cg.SetError(types.ErrInvalidDesc)
	}

	if rate, err := ParseCoupon(cells[DD_COL_COUPON]); err == nil {
		g.CouponRate = rate
	} else {
		cg.SetError(types.ErrInvalidCoupon)
	}

	if ts, err := ParseDate(cells[DD_COL_MATURITY_DATE]); err == nil {
		g.Maturity = ts.Format(types.DateFormat)
		g.CouponMonths = types.CouponMonths(ts)
	} else {
		cg.SetError(types.ErrInvalidMaturityDate)
	}

	if price, ok := ParseNumber(cells[DD_COL_PRICE]); ok && price > 0 {
		g.CleanPrice = &price
	} else {
		cg.SetError(types.ErrInvalidCleanPrice)
	}

	return cg
}
