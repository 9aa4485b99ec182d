package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"benritz/giltmonitor/internal/types"
)

var fourPercent2030 = types.BondTerms{CouponRate: 0.04, MaturityDate: date(2030, 3, 7)}

func TestDirtyPriceOnCouponDate(t *testing.T) {
	assert.Equal(t, 100.0, DirtyPrice(fourPercent2030, 100, date(2025, 3, 7)))
	assert.Zero(t, AccruedInterest(fourPercent2030, date(2025, 3, 7)))
}

func TestDirtyPriceMidPeriod(t *testing.T) {
	// 92 of 184 days into the period
	assert.InDelta(t, 1.0, AccruedInterest(fourPercent2030, date(2025, 6, 7)), 1e-12)
	assert.Equal(t, 99.5, DirtyPrice(fourPercent2030, 98.5, date(2025, 6, 7)))

	b := types.BondTerms{CouponRate: 0.0425, MaturityDate: date(2027, 12, 7)}
	assert.InDelta(t, 101.6412, DirtyPrice(b, 100.12, date(2026, 10, 16)), 1e-9)
}

func TestDirtyPriceRoundsToFourPlaces(t *testing.T) {
	v := DirtyPrice(fourPercent2030, 99.123456, date(2025, 6, 7))
	assert.Equal(t, 100.1235, v)
}

func TestAccruedInterestBounds(t *testing.T) {
	payment := CouponPayment(fourPercent2030)
	assert.Equal(t, 2.0, payment)

	start := date(2025, 3, 7)
	for h := 0; h < 184*24; h += 7 {
		valuation := start.Add(time.Duration(h) * time.Hour)
		a := AccruedInterest(fourPercent2030, valuation)
		assert.GreaterOrEqual(t, a, 0.0, valuation.String())
		assert.Less(t, a, payment, valuation.String())

		clean := 97.25
		assert.GreaterOrEqual(t, DirtyPrice(fourPercent2030, clean, valuation), clean)
	}

	almost := date(2025, 9, 7).Add(-time.Minute)
	assert.InDelta(t, payment, AccruedInterest(fourPercent2030, almost), 1e-3)
}

func TestDirtyPriceWithoutNextCoupon(t *testing.T) {
	b := types.BondTerms{CouponRate: 0.04}
	assert.Equal(t, 99.87, DirtyPrice(b, 99.87, date(2025, 6, 7)))
}

func TestDirtyPriceZeroCoupon(t *testing.T) {
	b := types.BondTerms{CouponRate: 0, MaturityDate: date(2030, 3, 7)}
	assert.Equal(t, 80.0, DirtyPrice(b, 80, date(2025, 6, 7)))
}
