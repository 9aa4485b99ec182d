package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"benritz/giltmonitor/internal/pricing"
	"benritz/giltmonitor/internal/types"
)

type calcYTMCmd struct {
	coupon        float64
	cleanPrice    float64
	taxRate       float64
	valuationDate string
	maturityDate  string
}

func (*calcYTMCmd) Name() string     { return "calc-ytm" }
func (*calcYTMCmd) Synopsis() string { return "value a single gilt from its clean price" }
func (*calcYTMCmd) Usage() string {
	return `calc-ytm -coupon <%> -cleanprice <price> -maturitydate <YYYY-MM-DD> [-valuationdate <YYYY-MM-DD>] [-taxrate <rate>]

  Prints the coupon schedule, accrued interest, dirty price and gross and net
  yields to maturity of a conventional gilt.
`
}

func (c *calcYTMCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.coupon, "coupon", 0.0, "Coupon rate (%) of the gilt")
	f.Float64Var(&c.cleanPrice, "cleanprice", 0.0, "Clean price per 100 nominal")
	f.Float64Var(&c.taxRate, "taxrate", 0.0, "Tax rate on coupons (0.0-1.0)")
	f.StringVar(&c.valuationDate, "valuationdate", "", "Valuation date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.maturityDate, "maturitydate", "", "Maturity date (YYYY-MM-DD)")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return types.Date(time.Now()), nil
	}
	return types.ParseDate(s)
}

func (c *calcYTMCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	flagsSet := make(map[string]bool)
	f.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if !flagsSet["coupon"] {
		fmt.Println("Error: -coupon flag is required")
		return subcommands.ExitUsageError
	}

	if !flagsSet["cleanprice"] {
		fmt.Println("Error: -cleanprice flag is required")
		return subcommands.ExitUsageError
	}

	if c.maturityDate == "" {
		fmt.Println("Error: -maturitydate flag is required")
		return subcommands.ExitUsageError
	}

	valuationDate, err := parseDate(c.valuationDate)
	if err != nil {
		fmt.Printf("Error: invalid valuation date: %v\n", err)
		return subcommands.ExitUsageError
	}

	maturityDate, err := parseDate(c.maturityDate)
	if err != nil {
		fmt.Printf("Error: invalid maturity date: %v\n", err)
		return subcommands.ExitUsageError
	}

	if c.coupon < 0.0 || c.coupon > 100.0 {
		fmt.Printf("Error: %v: coupon rate must be between 0.0 and 100.0\n", types.ErrInvalidCoupon)
		return subcommands.ExitUsageError
	}

	if c.cleanPrice <= 0.0 {
		fmt.Printf("Error: %v: clean price must be greater than 0.0\n", types.ErrInvalidCleanPrice)
		return subcommands.ExitUsageError
	}

	if c.taxRate < 0.0 || c.taxRate >= 1.0 {
		fmt.Printf("Error: %v: tax rate must be between 0.0 and 1.0\n", types.ErrInvalidTaxRate)
		return subcommands.ExitUsageError
	}

	if maturityDate.Before(valuationDate) {
		fmt.Printf("Warning: %v\n", types.ErrMaturityDateBeforeDate)
	}

	terms := types.BondTerms{
		CouponRate:   c.coupon / 100,
		MaturityDate: maturityDate,
	}

	schedule := pricing.BuildSchedule(terms, valuationDate)
	v := pricing.Value(terms, c.cleanPrice, valuationDate, c.taxRate)
	days, years, remaining := pricing.TimeToMaturity(valuationDate, maturityDate)

	fmt.Printf("Gilt Details:\n")
	fmt.Printf("\tType: %s\n", types.UKGilt)
	fmt.Printf("\tCoupon Rate: %.3f%%\n", c.coupon)
	fmt.Printf("\tCoupon Payment: %.4f\n", pricing.CouponPayment(terms))
	fmt.Printf("\tValuation Date: %s\n", valuationDate.Format(types.DateFormat))
	fmt.Printf("\tMaturity Date: %s\n", maturityDate.Format(types.DateFormat))
	fmt.Printf("\tTime to Maturity: %dy %dd (%d days)\n", years, remaining, days)
	fmt.Printf("\tRemaining Coupons: %d\n", len(schedule.Coupons))
	if !schedule.LastCoupon.IsZero() {
		fmt.Printf("\tPrevious Coupon Date: %s\n", schedule.LastCoupon.Format(types.DateFormat))
	}
	if schedule.HasNextCoupon() {
		fmt.Printf("\tNext Coupon Date: %s\n", schedule.NextCoupon.Format(types.DateFormat))
	}
	fmt.Printf("\tClean Price: %.3f\n", v.CleanPrice)
	fmt.Printf("\tAccrued Interest: %.4f\n", v.AccruedInterest)
	fmt.Printf("\tDirty Price: %.4f\n", v.DirtyPrice)
	fmt.Printf("\tGross Yield to Maturity: %s\n", formatYield(v.GrossYield))
	fmt.Printf("\tNet Yield to Maturity (tax %.0f%%): %s\n", c.taxRate*100, formatYield(v.NetYield))

	return subcommands.ExitSuccess
}

func formatYield(y *float64) string {
	if y == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%%", *y)
}
