package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/subcommands"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
	"benritz/giltmonitor/internal/types"
)

type collectCmd struct {
	source  string
	profile string
	taxRate float64
}

func (*collectCmd) Name() string { return "collect" }
func (*collectCmd) Synopsis() string {
	return "collect gilt prices and store a valued parquet snapshot"
}
func (*collectCmd) Usage() string {
	return `collect [-source giltsyield|dmo|dividenddata] [-profile <aws profile>] [-taxrate <rate>] <destination>

  Collects today's clean prices, values each gilt and writes the rows to
  <destination>/YYYY/MM/DD/<source>.parquet. The destination is a local
  directory or an s3://bucket/prefix path.
`
}

func (c *collectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "giltsyield", "Source to collect from (giltsyield, dmo or dividenddata)")
	f.StringVar(&c.profile, "profile", "default", "The AWS profile to use")
	f.Float64Var(&c.taxRate, "taxrate", 0.0, "Tax rate on coupons for the net yield")
}

func (c *collectCmd) collector() (collect.Collector, error) {
	switch c.source {
	case "giltsyield":
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return collect.NewGiltsyieldCollector(cfg.GiltsyieldURL), nil
	case "dmo":
		return collect.NewDMOCollector(log.New(os.Stderr, "", log.LstdFlags)), nil
	case "dividenddata":
		return collect.NewDividendDataCollector(""), nil
	}
	return nil, fmt.Errorf("unknown source %q", c.source)
}

func (c *collectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	dst := f.Arg(0)

	collector, err := c.collector()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	collected, err := collector.Collect(ctx, time.Now())
	if err != nil {
		if errors.Is(err, types.ErrDataUnavailable) {
			fmt.Printf("Data unavailable\n")
		} else {
			fmt.Printf("Failed to collect data: %v\n", err)
		}
		return subcommands.ExitFailure
	}

	for _, failed := range collected.Failures {
		fmt.Printf("Skipped row: %v\n", failed.Err)
	}

	outPath, err := collect.Store(ctx, collected.Snapshot(c.taxRate), dst, s3Client(c.profile))
	if err != nil {
		fmt.Printf("Failed to store data: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Stored %d gilts to %s\n", len(collected.Gilts), outPath)

	return subcommands.ExitSuccess
}
