package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/giltmonitor/internal/types"
)

func TestBuildSchedule(t *testing.T) {
	b := types.BondTerms{CouponRate: 0.04, MaturityDate: date(2030, 3, 7)}

	s := BuildSchedule(b, date(2025, 6, 7))

	require.Len(t, s.Coupons, 10)
	assert.Equal(t, date(2025, 9, 7), s.Coupons[0])
	assert.Equal(t, date(2030, 3, 7), s.Coupons[len(s.Coupons)-1])
	assert.Equal(t, date(2025, 3, 7), s.LastCoupon)
	assert.Equal(t, date(2025, 9, 7), s.NextCoupon)
	assert.Equal(t, date(2030, 3, 7), s.Maturity)
}

func TestBuildScheduleOnCouponDate(t *testing.T) {
	b := types.BondTerms{CouponRate: 0.04, MaturityDate: date(2030, 3, 7)}

	s := BuildSchedule(b, date(2025, 3, 7))

	require.Len(t, s.Coupons, 10)
	assert.Equal(t, date(2025, 3, 7), s.LastCoupon)
	assert.Equal(t, date(2025, 9, 7), s.NextCoupon)
}

func TestBuildScheduleMonthEnd(t *testing.T) {
	valuation := date(2026, 10, 16)

	s := BuildSchedule(types.BondTerms{CouponRate: 0.01, MaturityDate: date(2031, 3, 31)}, valuation)
	assert.Equal(t, []time.Time{date(2027, 3, 31), date(2027, 9, 30), date(2028, 3, 31)}, s.Coupons[:3])
	assert.Equal(t, date(2026, 9, 30), s.LastCoupon)
	assert.Equal(t, date(2027, 3, 31), s.NextCoupon)

	s = BuildSchedule(types.BondTerms{CouponRate: 0.01, MaturityDate: date(2031, 8, 31)}, valuation)
	assert.Equal(t, []time.Time{date(2027, 2, 28), date(2027, 8, 31), date(2028, 2, 29)}, s.Coupons[:3])
}

func TestBuildScheduleInvariants(t *testing.T) {
	maturities := []time.Time{
		date(2026, 1, 31), date(2028, 2, 29), date(2031, 3, 31), date(2033, 8, 31),
		date(2035, 10, 22), date(2041, 12, 7), date(2061, 10, 22), date(2073, 7, 22),
	}
	valuation := time.Date(2025, 11, 14, 9, 30, 0, 0, time.UTC)

	for _, maturity := range maturities {
		s := BuildSchedule(types.BondTerms{CouponRate: 0.03, MaturityDate: maturity}, valuation)

		require.NotEmpty(t, s.Coupons, maturity.String())
		assert.True(t, s.Coupons[0].After(valuation))
		assert.False(t, s.LastCoupon.After(valuation))
		assert.Equal(t, maturity, s.Coupons[len(s.Coupons)-1])

		for i, c := range s.Coupons {
			wantDay := min(maturity.Day(), daysIn(c.Year(), c.Month()))
			assert.Equal(t, wantDay, c.Day(), "day of %s", c)
			if i > 0 {
				prev := s.Coupons[i-1]
				assert.True(t, c.After(prev))
				months := (c.Year()-prev.Year())*12 + int(c.Month()-prev.Month())
				assert.Equal(t, 6, months, "%s -> %s", prev, c)
			}
		}
	}
}

func TestBuildScheduleAfterMaturity(t *testing.T) {
	b := types.BondTerms{CouponRate: 0.04, MaturityDate: date(2030, 3, 7)}

	s := BuildSchedule(b, date(2030, 5, 1))

	assert.Empty(t, s.Coupons)
	assert.Equal(t, date(2030, 3, 7), s.LastCoupon)
	assert.Equal(t, date(2030, 9, 7), s.NextCoupon)
}

func TestBuildScheduleGuard(t *testing.T) {
	b := types.BondTerms{CouponRate: 0.04, MaturityDate: date(2300, 3, 7)}

	s := BuildSchedule(b, date(2025, 3, 7))

	assert.Len(t, s.Coupons, maxCouponSteps)
	assert.Equal(t, date(2200, 9, 7), s.Coupons[0])
}

func TestBuildScheduleZeroMaturity(t *testing.T) {
	s := BuildSchedule(types.BondTerms{CouponRate: 0.04}, date(2025, 3, 7))

	assert.False(t, s.HasNextCoupon())
	assert.Empty(t, s.Coupons)
}
