package collect

import (
	"benritz/giltmonitor/internal/types"
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

var (
	SourceGiltsyield = "Giltsyield"

	DefaultGiltsyieldURL = "https://giltsyield.com/bond/"
	DefaultUserAgent     = "gilts-monitor/1.0 (+internal)"
)

// cell indexes of the td elements in a #bonds-table row, the bond name and ISIN are in th
var (
	GY_COL_STAR        = 0
	GY_COL_COUPON      = 1
	GY_COL_ISSUE_DATE  = 2
	GY_COL_MATURITY    = 3
	GY_COL_TENOR       = 4
	GY_COL_CLEAN_PRICE = 5
	GY_MIN_COLS        = 11
)

var isinRe = regexp.MustCompile(`GB[0-9A-Z]{10}`)

type GiltsyieldCollector struct {
	URL       string
	UserAgent string
}

func NewGiltsyieldCollector(url string) *GiltsyieldCollector {
	if url == "" {
		url = DefaultGiltsyieldURL
	}
	return &GiltsyieldCollector{
		URL:       url,
		UserAgent: DefaultUserAgent,
	}
}

// Collect scrapes the conventional gilts listed on the bonds table, with their clean prices.
func (c *GiltsyieldCollector) Collect(ctx context.Context, date time.Time) (*CollectedGilts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x := colly.NewCollector(colly.UserAgent(c.UserAgent))

	collected := NewCollectedGilts(SourceGiltsyield, date)

	x.OnHTML("#bonds-table tbody tr", func(e *colly.HTMLElement) {
		if cg := c.readGilt(e); cg != nil {
			collected.AddGilt(cg)
		}
	})

	if err := x.Visit(c.URL); err != nil {
		return nil, err
	}

	if len(collected.Gilts) == 0 {
		return nil, types.ErrDataUnavailable
	}

	return collected, nil
}

func (c *GiltsyieldCollector) Source() string {
	return SourceGiltsyield
}

// Prices returns the clean prices currently shown on the bonds table.
func (c *GiltsyieldCollector) Prices(ctx context.Context, date time.Time) (map[string]float64, error) {
	collected, err := c.Collect(ctx, date)
	if err != nil {
		return nil, err
	}
	return collected.CleanPrices(), nil
}

func (c *GiltsyieldCollector) readGilt(e *colly.HTMLElement) *CollectedGilt {
	cells := []string{}
	e.ForEach("td", func(_ int, el *colly.HTMLElement) {
		cells = append(cells, strings.TrimSpace(el.Text))
	})
	if len(cells) < GY_MIN_COLS {
		return nil
	}

	bondCell := e.DOM.Find("th").First()
	name := NormalizeFractions(strings.TrimSpace(bondCell.Find("a").First().Text()))

	isin := isinRe.FindString(bondCell.Text())
	if isin == "" {
		return nil
	}

	maturity, err := ParseDate(cells[GY_COL_MATURITY])
	if err != nil {
		return nil
	}

	if unsupported(name) {
		return nil
	}

	g := &types.Gilt{
		Code:         strings.TrimSpace(e.Attr("data-ticker")),
		Name:         name,
		ISIN:         isin,
		Maturity:     maturity.Format(types.DateFormat),
		CouponMonths: types.CouponMonths(maturity),
	}

	cg := &CollectedGilt{Gilt: g}

	if pct, err := strconv.ParseFloat(strings.TrimSpace(e.Attr("data-coupon")), 64); err == nil {
		g.CouponRate = pct / 100
	} else if rate, err := ParseCoupon(cells[GY_COL_COUPON]); err == nil {
		g.CouponRate = rate
	} else {
		cg.SetError(types.ErrInvalidCoupon)
	}

	if price, ok := ParseNumber(cells[GY_COL_CLEAN_PRICE]); ok {
		g.CleanPrice = &price
	}

	return cg
}
