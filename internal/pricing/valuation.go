package pricing

import (
	"time"

	"benritz/giltmonitor/internal/types"
)

// YieldToMaturity returns the yield (percent, 3 dp) of buying at dirtyPrice on the
// valuation date with coupons taxed at taxRate. False means no yield could be solved.
func YieldToMaturity(b types.BondTerms, dirtyPrice, taxRate float64, valuation time.Time) (float64, bool) {
	return SolveYield(ProjectCashflows(b, dirtyPrice, taxRate, valuation))
}

// Value prices a bond from its clean price: accrued interest, dirty price, the gross
// yield and the yield net of taxRate.
func Value(b types.BondTerms, cleanPrice float64, valuation time.Time, taxRate float64) types.Valuation {
	s := BuildSchedule(b, valuation)
	accruedInterest := accrued(b, s, valuation)
	dirty := Round(cleanPrice+accruedInterest, 4)

	v := types.Valuation{
		CleanPrice:      cleanPrice,
		AccruedInterest: Round(accruedInterest, 4),
		DirtyPrice:      dirty,
	}

	if y, ok := YieldToMaturity(b, dirty, 0, valuation); ok {
		v.GrossYield = &y
	}

	if taxRate == 0 {
		v.NetYield = v.GrossYield
	} else if y, ok := YieldToMaturity(b, dirty, taxRate, valuation); ok {
		v.NetYield = &y
	}

	return v
}
