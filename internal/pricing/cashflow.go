package pricing

import (
	"time"

	"benritz/giltmonitor/internal/types"
)

// ProjectCashflows returns the cash flows of buying the bond at dirtyPrice on the
// valuation date and holding it to maturity. Tax reduces coupons only; the principal
// is repaid untaxed with the final coupon.
func ProjectCashflows(b types.BondTerms, dirtyPrice, taxRate float64, valuation time.Time) []types.Cashflow {
	s := BuildSchedule(b, valuation)

	coupon := CouponPayment(b) * (1 - taxRate)

	flows := make([]types.Cashflow, 0, len(s.Coupons)+1)
	flows = append(flows, types.Cashflow{Amount: -dirtyPrice, Date: valuation})

	for _, date := range s.Coupons {
		amount := coupon
		if sameDay(date, s.Maturity) {
			amount += faceValue
		}
		flows = append(flows, types.Cashflow{Amount: amount, Date: date})
	}

	return flows
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
