package collect

import (
	"benritz/giltmonitor/internal/types"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pbnjay/grate"
	_ "github.com/pbnjay/grate/xls"
)

var SourceDMO = "DMO"

var DefaultDMOURL = "https://www.dmo.gov.uk/umbraco/surface/DataExport/GetDataExport"

var (
	DMO_COL_ISIN        = 0
	DMO_COL_DESC        = 1
	DMO_COL_CLEAN_PRICE = 2
	DMO_COL_MATURITY    = 7
)

type DMOCollector struct {
	URL    string
	Client *http.Client
	Logger *log.Logger
}

func NewDMOCollector(logger *log.Logger) *DMOCollector {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DMOCollector{
		URL:    DefaultDMOURL,
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
	}
}

func (c *DMOCollector) reportURL(date time.Time) string {
	// The DMO website has a number of reports that can be used to collect gilt data.
	// https://www.dmo.gov.uk/data/pdfdatareport?reportCode=D1A
	// https://www.dmo.gov.uk/data/pdfdatareport?reportCode=D9D
	// https://www.dmo.gov.uk/data/pdfdatareport?reportCode=D10B
	params := fmt.Sprintf("&Trade Date=%02d-%02d-%04d", date.Day(), date.Month(), date.Year())
	return c.URL + "?reportCode=D10B&exportFormatValue=xls&parameters=" + url.QueryEscape(params)
}

func (c *DMOCollector) Collect(ctx context.Context, date time.Time) (*CollectedGilts, error) {
	u := c.reportURL(date)

	c.Logger.Printf("dmo: fetching %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get data: http %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "gilt-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, resp.Body)
	tmp.Close()
	if err != nil {
		return nil, err
	}

	c.Logger.Printf("dmo: downloaded %d bytes to %s", size, tmp.Name())

	wb, err := grate.Open(tmp.Name())
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	collected := NewCollectedGilts(SourceDMO, date)
	parsed := 0

	sheets, err := wb.List()
	if err != nil {
		return nil, err
	}
	for _, sheetName := range sheets {
		sheet, err := wb.Get(sheetName)
		if err != nil {
			return nil, err
		}

		for sheet.Next() {
			cg, err := c.parseRow(sheet.Strings())
			if err == nil {
				collected.AddGilt(cg)
				parsed++
			}
		}
	}

	if parsed == 0 {
		return nil, types.ErrDataUnavailable
	}

	return collected, nil
}

func (c *DMOCollector) Source() string {
	return SourceDMO
}

// Prices returns the clean prices of the D10B report for the trade date.
func (c *DMOCollector) Prices(ctx context.Context, date time.Time) (map[string]float64, error) {
	collected, err := c.Collect(ctx, date)
	if err != nil {
		return nil, err
	}
	return collected.CleanPrices(), nil
}

func (c *DMOCollector) parseRow(row []string) (*CollectedGilt, error) {
	if len(row) <= DMO_COL_MATURITY {
		return nil, ErrInvalidRow
	}

	isin := strings.TrimSpace(row[DMO_COL_ISIN])

	if !strings.HasPrefix(isin, "GB") {
		return nil, ErrInvalidRow
	}

	desc := NormalizeFractions(strings.TrimSpace(row[DMO_COL_DESC]))

	// unsupported bonds
	if unsupported(desc) {
		return nil, types.ErrUnsupportedBond
	}

	g := &types.Gilt{
		ISIN: isin,
		Name: desc,
	}

	cg := &CollectedGilt{Gilt: g}

	if coupon, err := ParseCoupon(desc); err == nil {
		g.CouponRate = coupon
	} else {
		cg.SetError(types.ErrInvalidCoupon)
	}

	if cleanPrice, err := strconv.ParseFloat(strings.TrimSpace(row[DMO_COL_CLEAN_PRICE]), 64); err == nil && cleanPrice > 0 {
		g.CleanPrice = &cleanPrice
	} else {
		cg.SetError(types.ErrInvalidCleanPrice)
	}

	if ts, err := ParseDate(row[DMO_COL_MATURITY]); err == nil {
		g.Maturity = ts.Format(types.DateFormat)
		g.CouponMonths = types.CouponMonths(ts)
	} else {
		cg.SetError(types.ErrInvalidMaturityDate)
	}

	return cg, nil
}
