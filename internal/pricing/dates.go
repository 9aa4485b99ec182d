package pricing

import (
	"math"
	"time"
)

const daysPerYear = 365.25

// AddMonths shifts t by n calendar months keeping the day-of-month, clamped to the
// last day of the target month (31 Mar - 6 months is 30 Sep).
func AddMonths(t time.Time, n int) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the signed, fractional number of days from earlier to later.
func DaysBetween(later, earlier time.Time) float64 {
	return later.Sub(earlier).Hours() / 24
}

// TimeToMaturity returns the whole days from t to maturity (never negative) split into
// years of 365.25 days and the remaining days.
func TimeToMaturity(t, maturity time.Time) (days, years, remaining int) {
	days = int(math.Max(0, math.Floor(DaysBetween(maturity, t))))
	years = int(math.Floor(float64(days) / daysPerYear))
	remaining = int(math.Max(0, math.Round(float64(days)-float64(years)*daysPerYear)))
	return days, years, remaining
}
