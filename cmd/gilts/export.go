package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
	"benritz/giltmonitor/internal/export"
	"benritz/giltmonitor/internal/monitor"
	"benritz/giltmonitor/internal/store"
)

type exportCmd struct {
	format  string
	output  string
	taxRate float64
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the current gilt quotes to an xlsx or pdf file" }
func (*exportCmd) Usage() string {
	return `export [-format xlsx|pdf] [-taxrate <rate>] [-o <file>]

  Prices the stored gilt list and writes the quotes table.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "xlsx", "Output format (xlsx or pdf)")
	f.StringVar(&c.output, "o", "", "Output file (defaults to gilts.<format>)")
	f.Float64Var(&c.taxRate, "taxrate", 0.0, "Tax rate for the net yield")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	build := export.BuildQuotesXLSX
	switch c.format {
	case "xlsx":
	case "pdf":
		build = export.BuildQuotesPDF
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if c.output == "" {
		c.output = "gilts." + c.format
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	site := collect.NewGiltsyieldCollector(cfg.GiltsyieldURL)
	m := monitor.New(store.Open(cfg.GiltsPath), site, newQuoter(cfg, logger, site), monitor.Options{
		Logger:   logger,
		TaxRates: cfg.AllowedTaxRate,
	})

	resp, err := m.Quote(ctx, monitor.Query{TaxRate: c.taxRate})
	if err != nil {
		fmt.Printf("Failed to quote gilts: %v\n", err)
		return subcommands.ExitFailure
	}

	data, err := build(resp)
	if err != nil {
		fmt.Printf("Failed to build %s: %v\n", c.format, err)
		return subcommands.ExitFailure
	}

	if err := os.WriteFile(c.output, data, 0o644); err != nil {
		fmt.Printf("Failed to write %s: %v\n", c.output, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Wrote %d gilts to %s\n", resp.Count, c.output)

	return subcommands.ExitSuccess
}
