package collect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/giltmonitor/internal/types"
)

func TestParseCoupon(t *testing.T) {
	cases := map[string]float64{
		"0 5/8% Treasury Gilt 2025": 0.00625,
		"2% Treasury Gilt 2025":     0.02,
		"3½% Treasury Gilt 2025":    0.035,
		"4¼% Treasury Gilt 2027":    0.0425,
		"1⅛% Treasury Gilt 2039":    0.01125,
		"⅞% Green Gilt 2033":        0.00875,
		"1/8% Treasury Gilt 2026":   0.00125,
		"4.25%":                     0.0425,
		" 4 3/4 %":                  0.0475,
	}
	for in, want := range cases {
		got, err := ParseCoupon(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-12, in)
	}
}

func TestParseCouponInvalid(t *testing.T) {
	for _, in := range []string{"", "Treasury Gilt 2025", "%", "3/0%", "abc%"} {
		_, err := ParseCoupon(in)
		assert.ErrorIs(t, err, types.ErrInvalidCoupon, in)
	}
}

func TestNormalizeFractions(t *testing.T) {
	assert.Equal(t, "3 1/2% Treasury Gilt 2025", NormalizeFractions("3½% Treasury  Gilt 2025"))
	assert.Equal(t, "1/4%", NormalizeFractions("¼%"))
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber("£101.23")
	require.True(t, ok)
	assert.Equal(t, 101.23, v)

	v, ok = ParseNumber(" 1,234.5 ")
	require.True(t, ok)
	assert.Equal(t, 1234.5, v)

	v, ok = ParseNumber("-0.25%")
	require.True(t, ok)
	assert.Equal(t, -0.25, v)

	_, ok = ParseNumber("n/a")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2030-03-07", "07 Mar 2030", "7 Mar 2030", "07-Mar-2030", " 7 March 2030 "} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDate("soon")
	assert.ErrorIs(t, err, types.ErrInvalidMaturityDate)
}

func TestUnsupported(t *testing.T) {
	assert.True(t, unsupported("0 1/8% Index-linked Treasury Gilt 2029"))
	assert.True(t, unsupported("2½% Index Linked Treasury Stock 2024"))
	assert.True(t, unsupported("Treasury Strip 2030"))
	assert.False(t, unsupported("4 1/4% Treasury Gilt 2027"))
}
