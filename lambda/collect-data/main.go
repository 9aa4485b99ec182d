package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"benritz/giltmonitor/internal/collect"
)

var (
	ENV_BUCKET_NAME   = "GILTS_DATA_BUCKET_NAME"
	ENV_BUCKET_PREFIX = "GILTS_DATA_BUCKET_PREFIX"
	ENV_SOURCE        = "GILTS_SOURCE"
	ENV_TAX_RATE      = "GILTS_TAX_RATE"
	ENV_SITE_URL      = "HL_GILTS_URL"
)

func newCollector(source string) (collect.Collector, error) {
	switch source {
	case "", "giltsyield":
		return collect.NewGiltsyieldCollector(os.Getenv(ENV_SITE_URL)), nil
	case "dmo":
		return collect.NewDMOCollector(nil), nil
	case "dividenddata":
		return collect.NewDividendDataCollector(""), nil
	}
	return nil, fmt.Errorf("unknown %s %q", ENV_SOURCE, source)
}

func collectData(ctx context.Context) error {
	bucketName := os.Getenv(ENV_BUCKET_NAME)
	if bucketName == "" {
		return fmt.Errorf("%s is not set", ENV_BUCKET_NAME)
	}

	path := &collect.S3Path{
		Bucket: bucketName,
		Prefix: os.Getenv(ENV_BUCKET_PREFIX),
	}

	taxRate := 0.0
	if v := os.Getenv(ENV_TAX_RATE); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ENV_TAX_RATE, err)
		}
		taxRate = parsed
	}

	collector, err := newCollector(os.Getenv(ENV_SOURCE))
	if err != nil {
		return err
	}

	collected, err := collector.Collect(ctx, time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	outPath, err := collect.StoreToS3(ctx, collected.Snapshot(taxRate), s3.NewFromConfig(cfg), path)
	if err != nil {
		return err
	}

	fmt.Printf("Stored %d gilts to %s\n", len(collected.Gilts), outPath)

	return nil
}

func responseWithFailure(rec events.SQSMessage) events.SQSEventResponse {
	return events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{
			{
				ItemIdentifier: rec.MessageId,
			},
		},
	}
}

func handler(ctx context.Context, request events.SQSEvent) (events.SQSEventResponse, error) {
	err := collectData(ctx)

	if err != nil && len(request.Records) > 0 {
		// should just have a single record, ignore the rest
		rec := request.Records[0]
		return responseWithFailure(rec), fmt.Errorf("failed to collect data: %w", err)
	}

	return events.SQSEventResponse{}, nil
}

func main() {
	lambda.Start(handler)
}
