package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
	"benritz/giltmonitor/internal/store"
)

type updateCmd struct {
	path string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "refresh the stored gilt list from the listing site" }
func (*updateCmd) Usage() string {
	return `update [-path <gilts.json>]

  Scrapes the conventional gilts currently listed and rewrites the gilt list.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", "", "Path to the gilt list (defaults to GILTS_PATH)")
}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.path != "" {
		cfg.GiltsPath = c.path
	}

	collector := collect.NewGiltsyieldCollector(cfg.GiltsyieldURL)

	collected, err := collector.Collect(ctx, time.Now())
	if err != nil {
		fmt.Printf("Failed to collect gilts: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, f := range collected.Failures {
		fmt.Printf("Skipped row: %v\n", f.Err)
	}

	s := store.Open(cfg.GiltsPath)
	result, err := s.Update(collected.Gilts)
	if err != nil {
		fmt.Printf("Failed to write %s: %v\n", cfg.GiltsPath, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Fetched %d gilts; added %d new. Wrote %s\n", result.Total, result.Added, s.Path())

	return subcommands.ExitSuccess
}
