package pricing

import (
	"math"
	"sort"

	"benritz/giltmonitor/internal/types"
)

const (
	xirrLow           = -0.9999
	xirrHigh          = 5.0
	xirrExpandStep    = 5.0
	xirrMaxExpansions = 10
	xirrMaxIterations = 100
	xirrTolerance     = 1e-7
)

// NetPresentValue discounts each cash flow to the earliest flow date at the annual rate r,
// using elapsed days over a 365.25 day year. flows must be sorted by date.
func NetPresentValue(r float64, flows []types.Cashflow) float64 {
	if len(flows) == 0 {
		return 0
	}

	start := flows[0].Date
	npv := 0.0
	for _, cf := range flows {
		t := DaysBetween(cf.Date, start) / daysPerYear
		npv += cf.Amount / math.Pow(1+r, t)
	}
	return npv
}

// SolveYield calculates the internal rate of return of cash flows at irregular dates
// (XIRR) by bisection.
//
// Parameters:
//
//	flows: Cash flows in any order. At least two are required.
//
// Returns:
//
//	The annual rate as a percentage rounded to 3 decimal places, and false when there
//	are too few flows or no sign change of the NPV could be bracketed.
func SolveYield(flows []types.Cashflow) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}

	sorted := make([]types.Cashflow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	npv := func(r float64) float64 {
		return NetPresentValue(r, sorted)
	}

	low, high := xirrLow, xirrHigh
	fLow, fHigh := npv(low), npv(high)

	for i := 0; fLow*fHigh > 0 && i < xirrMaxExpansions; i++ {
		high += xirrExpandStep
		fHigh = npv(high)
	}

	if fLow*fHigh > 0 || math.IsNaN(fLow) || math.IsNaN(fHigh) {
		return 0, false
	}

	mid := 0.0
	for i := 0; i < xirrMaxIterations; i++ {
		mid = (low + high) / 2
		fMid := npv(mid)
		if math.Abs(fMid) < xirrTolerance {
			break
		}
		if fLow*fMid < 0 {
			high = mid
		} else {
			low = mid
			fLow = fMid
		}
	}

	if math.IsNaN(mid) || math.IsInf(mid, 0) {
		return 0, false
	}

	return Round(mid*100, 3), true
}
