package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"benritz/giltmonitor/internal/types"
)

const faceValue = 100.0

// CouponPayment returns the semi-annual coupon per 100 nominal.
func CouponPayment(b types.BondTerms) float64 {
	return faceValue * b.CouponRate / 2
}

// AccruedInterest returns the coupon earned since the last coupon date, using a linear
// fraction of elapsed days over the days in the coupon period (not Actual/Actual ICMA).
func AccruedInterest(b types.BondTerms, valuation time.Time) float64 {
	return accrued(b, BuildSchedule(b, valuation), valuation)
}

func accrued(b types.BondTerms, s Schedule, valuation time.Time) float64 {
	if !s.HasNextCoupon() {
		return 0
	}

	period := DaysBetween(s.NextCoupon, s.LastCoupon)
	if period <= 0 {
		return 0
	}

	elapsed := DaysBetween(valuation, s.LastCoupon)
	if elapsed < 0 {
		elapsed = 0
	}

	return CouponPayment(b) * elapsed / period
}

// DirtyPrice converts a clean price to the settlement price at the valuation date,
// rounded to 4 decimal places. Without a next coupon the clean price is returned.
func DirtyPrice(b types.BondTerms, cleanPrice float64, valuation time.Time) float64 {
	return Round(cleanPrice+AccruedInterest(b, valuation), 4)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
