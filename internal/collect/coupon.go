package collect

import (
	"benritz/giltmonitor/internal/types"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var fractionReplacer = strings.NewReplacer(
	"¼", " 1/4",
	"½", " 1/2",
	"¾", " 3/4",
	"⅛", " 1/8",
	"⅜", " 3/8",
	"⅝", " 5/8",
	"⅞", " 7/8",
)

// NormalizeFractions rewrites vulgar fraction characters as "n/d" separated from any
// preceding whole number: "3½% Treasury" becomes "3 1/2% Treasury".
func NormalizeFractions(s string) string {
	return strings.Join(strings.Fields(fractionReplacer.Replace(s)), " ")
}

var couponRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)?\s*(?:(\d+)/(\d+))?\s*%`)

// ParseCoupon parses a coupon percentage at the start of s in the following formats
// 0 5/8% Treasury Gilt 2025,
// 2% Treasury Gilt 2025,
// 3½% Treasury Gilt 2025,
// 4.25%
//
//	s: coupon or bond description
//
// Returns:
//
//	Coupon rate as a fraction (0.035 for 3½%)
func ParseCoupon(s string) (float64, error) {
	match := couponRe.FindStringSubmatch(NormalizeFractions(s))
	if match == nil || (match[1] == "" && match[2] == "") {
		return 0, types.ErrInvalidCoupon
	}

	pct := 0.0

	if match[1] != "" {
		whole, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, types.ErrInvalidCoupon
		}
		pct += whole
	}

	if match[2] != "" {
		num, err := strconv.Atoi(match[2])
		if err != nil {
			return 0, types.ErrInvalidCoupon
		}
		den, err := strconv.Atoi(match[3])
		if err != nil || den == 0 {
			return 0, types.ErrInvalidCoupon
		}
		pct += float64(num) / float64(den)
	}

	return pct / 100, nil
}

var numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseNumber extracts the first decimal number from text such as "£101.23" or "1,234.5".
func ParseNumber(text string) (float64, bool) {
	m := numberRe.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	types.DateFormat,
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 January 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"02/01/2006",
	"02-Jan-06",
}

// ParseDate parses a maturity date as displayed by gilt price sources.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, types.ErrInvalidMaturityDate
}

// unsupported reports gilts the engine cannot value: index-linked issues and strips.
func unsupported(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "index") ||
		strings.Contains(n, "link") ||
		strings.Contains(n, "rpi") ||
		strings.Contains(n, "strip")
}
