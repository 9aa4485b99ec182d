package pricing

import (
	"time"

	"benritz/giltmonitor/internal/types"
)

const (
	couponMonths   = 6
	maxCouponSteps = 200
)

// Schedule is the semi-annual coupon calendar of a bond as seen from a valuation date.
//
//	Coupons:    Coupon dates after the valuation date, ascending, ending at maturity.
//	LastCoupon: Accrual start, one period before NextCoupon. May precede issue.
//	NextCoupon: First coupon after the valuation date. Zero when there is none.
type Schedule struct {
	Coupons    []time.Time
	LastCoupon time.Time
	NextCoupon time.Time
	Maturity   time.Time
}

func (s Schedule) HasNextCoupon() bool {
	return !s.NextCoupon.IsZero()
}

// BuildSchedule derives the coupon calendar by stepping back from maturity in 6 month
// periods until a date on or before the valuation date is reached. A coupon falling on the
// valuation date counts as paid, so it becomes LastCoupon and accrues nothing.
func BuildSchedule(b types.BondTerms, valuation time.Time) Schedule {
	if b.MaturityDate.IsZero() {
		return Schedule{}
	}

	maturity := types.Date(b.MaturityDate)
	coupons := []time.Time{}

	// each step is taken from maturity so the day-of-month never drifts
	// through a short month (31 Mar -> 30 Sep -> 31 Mar, not 30 Mar)
	step := 0
	cursor := maturity
	for cursor.After(valuation) && step < maxCouponSteps {
		coupons = append(coupons, cursor)
		step++
		cursor = AddMonths(maturity, -couponMonths*step)
	}

	for i, j := 0, len(coupons)-1; i < j; i, j = i+1, j-1 {
		coupons[i], coupons[j] = coupons[j], coupons[i]
	}

	var next time.Time
	if len(coupons) > 0 {
		next = coupons[0]
	} else {
		next = AddMonths(maturity, -couponMonths*(step-1))
	}

	return Schedule{
		Coupons:    coupons,
		LastCoupon: AddMonths(next, -couponMonths),
		NextCoupon: next,
		Maturity:   maturity,
	}
}
