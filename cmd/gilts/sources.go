package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
)

func getAwsConfig(ctx context.Context, profile string) (aws.Config, error) {
	if profile == "" || profile == "default" {
		return awsconfig.LoadDefaultConfig(ctx)
	}
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile))
}

// s3Client returns a lazy S3 client factory, only called for s3:// destinations.
func s3Client(profile string) func(ctx context.Context) (collect.ObjectPutter, error) {
	return func(ctx context.Context) (collect.ObjectPutter, error) {
		cfg, err := getAwsConfig(ctx, profile)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return s3.NewFromConfig(cfg), nil
	}
}

// newQuoter orders the price sources: the live feed when configured, the site the
// gilt list comes from, then the DMO report and the dividenddata table when enabled.
func newQuoter(cfg config.Config, logger *log.Logger, site *collect.GiltsyieldCollector) *collect.Quoter {
	var sources []collect.PriceSource
	if cfg.PriceFeedURL != "" {
		sources = append(sources, collect.NewLiveFeed(cfg.PriceFeedURL))
	}
	sources = append(sources, site)
	if cfg.UseDMO {
		sources = append(sources, collect.NewDMOCollector(logger))
	}
	if cfg.UseDividendData {
		sources = append(sources, collect.NewDividendDataCollector(""))
	}
	return collect.NewQuoter(logger, sources...)
}
