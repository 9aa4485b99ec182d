package collect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/giltmonitor/internal/types"
)

const dividendDataPage = `<html><body>
<label>Last updated: 07 Mar 2025</label>
<table id="mainbody">
<tr><th>Ticker</th><th>Name</th><th>Coupon</th><th>Maturity</th><th>Years</th><th>Price</th><th>YTM</th></tr>
<tr><td>T30</td><td>Treasury 4% 2030</td><td>4%</td><td>07-Mar-2030</td><td>5.0</td><td>£99.87</td><td>4.05%</td></tr>
<tr><td>T27</td><td>Treasury 4¼% 2027</td><td>4¼%</td><td>07-Dec-2027</td><td>2.8</td><td>£100.20</td><td>4.1%</td></tr>
<tr><td>TG68</td><td>Treasury 0 1/8% Index-Linked 2068</td><td>0.125%</td><td>22-Mar-2068</td><td>43</td><td>£60.00</td><td>1.9%</td></tr>
<tr><td>T99</td><td>Treasury Bad 2099</td><td>n/a</td><td>07-Mar-2099</td><td>74</td><td>£90.00</td><td>4%</td></tr>
</table>
</body></html>`

func TestDividendDataCollect(t *testing.T) {
	ts := bondsServer(t, dividendDataPage)
	c := NewDividendDataCollector(ts.URL)

	collected, err := c.Collect(context.Background(), time.Date(2025, 3, 7, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, SourceDividendData, collected.Source)

	require.Len(t, collected.Gilts, 2)
	g := collected.Gilts[1]
	assert.Equal(t, "T27", g.Code)
	assert.Equal(t, "Treasury 4 1/4% 2027", g.Name)
	assert.Equal(t, "2027-12-07", g.Maturity)
	assert.InDelta(t, 0.0425, g.CouponRate, 1e-12)
	require.NotNil(t, g.CleanPrice)
	assert.Equal(t, 100.20, *g.CleanPrice)

	require.Len(t, collected.Failures, 1)
	assert.ErrorIs(t, collected.Failures[0].Err, types.ErrInvalidCoupon)

	assert.Equal(t, map[string]float64{"T30": 99.87, "T27": 100.20}, collected.CleanPrices())
}

func TestDividendDataCollectStale(t *testing.T) {
	ts := bondsServer(t, dividendDataPage)
	c := NewDividendDataCollector(ts.URL)

	_, err := c.Collect(context.Background(), time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, types.ErrDataUnavailable)
}

func TestQuoterMatchesByCode(t *testing.T) {
	ts := bondsServer(t, dividendDataPage)
	now := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

	g := types.NewUKGilt("GB00B52WS153", time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC), 0.04)
	g.Code = "T30"

	q := NewQuoter(nil, NewDividendDataCollector(ts.URL))
	quotes := q.CleanPrices(context.Background(), []*types.Gilt{g}, now)

	assert.Equal(t, Quote{CleanPrice: 99.87, Source: SourceDividendData, Timestamp: now}, quotes[g.ISIN])
}
