package collect

import (
	"benritz/giltmonitor/internal/pricing"
	"benritz/giltmonitor/internal/types"
	"path/filepath"
	"time"

	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
)

var (
	ErrInvalidRow = fmt.Errorf("invalid row")
)

type CollectedGilt struct {
	Gilt *types.Gilt
	Err  error
}

// SetError keeps the first error recorded against the row.
func (c *CollectedGilt) SetError(err error) {
	if c.Err == nil {
		c.Err = err
	}
}

type CollectedGilts struct {
	Gilts    []*types.Gilt
	Failures []*CollectedGilt
	Source   string
	Date     time.Time
}

func (c *CollectedGilts) AddGilt(cg *CollectedGilt) {
	if cg.Err == nil {
		c.Gilts = append(c.Gilts, cg.Gilt)
	} else {
		c.Failures = append(c.Failures, cg)
	}
}

// CleanPrices returns the collected clean prices keyed by ISIN, or by ticker code for
// gilts collected without one.
func (c *CollectedGilts) CleanPrices() map[string]float64 {
	prices := make(map[string]float64, len(c.Gilts))
	for _, g := range c.Gilts {
		if g.CleanPrice == nil {
			continue
		}
		if g.ISIN != "" {
			prices[g.ISIN] = *g.CleanPrice
		} else if g.Code != "" {
			prices[g.Code] = *g.CleanPrice
		}
	}
	return prices
}

func NewCollectedGilts(source string, date time.Time) *CollectedGilts {
	return &CollectedGilts{
		Source: source,
		Date:   date,
		Gilts:  []*types.Gilt{},
	}
}

// Snapshot values the collected gilts that carry a clean price at the collection date,
// with coupons taxed at taxRate.
func (c *CollectedGilts) Snapshot(taxRate float64) *Snapshot {
	snapshot := &Snapshot{
		Source: c.Source,
		Date:   c.Date,
		Rows:   []*types.PricedGilt{},
	}

	for _, g := range c.Gilts {
		if g.CleanPrice == nil {
			continue
		}
		terms, err := g.Terms()
		if err != nil {
			continue
		}

		v := pricing.Value(terms, *g.CleanPrice, c.Date, taxRate)

		snapshot.Rows = append(snapshot.Rows, &types.PricedGilt{
			Source:       c.Source,
			ISIN:         g.ISIN,
			Code:         g.Code,
			Name:         g.Name,
			Maturity:     terms.MaturityDate,
			CouponRate:   g.CouponRate,
			ValuedAt:     c.Date,
			TaxRate:      taxRate,
			CleanPrice:   v.CleanPrice,
			DirtyPrice:   v.DirtyPrice,
			GrossYield:   v.GrossYield,
			NetYield:     v.NetYield,
			PriceQuality: c.Source,
		})
	}

	return snapshot
}

type Collector interface {
	Collect(ctx context.Context, date time.Time) (*CollectedGilts, error)
	Source() string
}

// Snapshot is a set of valued gilts from one source at one valuation date.
type Snapshot struct {
	Source string
	Date   time.Time
	Rows   []*types.PricedGilt
}

func writeRows(rows []*types.PricedGilt, output io.Writer) error {
	writer := parquet.NewGenericWriter[*types.PricedGilt](output)

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return nil
}

// ReadRows reads snapshot rows previously written by StoreToPath or StoreToS3.
func ReadRows(input io.ReaderAt) ([]types.PricedGilt, error) {
	reader := parquet.NewGenericReader[types.PricedGilt](input)
	defer reader.Close()

	rows := make([]types.PricedGilt, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return rows[:n], nil
}

func StoreToPath(ctx context.Context, snapshot *Snapshot, basepath string) (string, error) {
	date := snapshot.Date

	path := fmt.Sprintf(
		"%s%c%04d%c%02d%c%02d",
		basepath,
		filepath.Separator,
		date.UTC().Year(),
		filepath.Separator,
		date.UTC().Month(),
		filepath.Separator,
		date.UTC().Day(),
	)

	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return "", err
	}

	outPath := fmt.Sprintf("%s%c%s.parquet", path, filepath.Separator, snapshot.Source)

	file, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := writeRows(snapshot.Rows, file); err != nil {
		return "", err
	}

	return outPath, nil
}

type S3Path struct {
	Bucket string
	Prefix string
}

func ParseS3(path string) (*S3Path, error) {
	if !strings.HasPrefix(path, "s3://") {
		return nil, fmt.Errorf("path must start with s3://")
	}

	path = strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(path, "/", 2)

	bucket := parts[0]
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket in s3 path")
	}

	var prefix string

	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}

	return &S3Path{
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

// Key returns the object key of a snapshot under the path's prefix.
func (p *S3Path) Key(source string, date time.Time) string {
	key := fmt.Sprintf(
		"%04d/%02d/%02d/%s.parquet",
		date.UTC().Year(),
		date.UTC().Month(),
		date.UTC().Day(),
		source,
	)

	if p.Prefix != "" {
		key = fmt.Sprintf("%s/%s", p.Prefix, key)
	}

	return key
}

// ObjectPutter is the part of the S3 client used to upload snapshots.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func StoreToS3(ctx context.Context, snapshot *Snapshot, s3Client ObjectPutter, dst *S3Path) (string, error) {
	tmp, err := os.CreateTemp("", "gilt-*.parquet")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()
	defer os.Remove(tmp.Name())

	if err := writeRows(snapshot.Rows, tmp); err != nil {
		return "", err
	}

	if _, err := tmp.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to seek to start of file: %w", err)
	}

	key := dst.Key(snapshot.Source, snapshot.Date)

	input := &s3.PutObjectInput{
		Bucket: aws.String(dst.Bucket),
		Key:    aws.String(key),
		Body:   tmp,
	}

	if _, err := s3Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file to s3://%s/%s: %w", dst.Bucket, key, err)
	}

	outPath := fmt.Sprintf("s3://%s/%s", dst.Bucket, key)

	return outPath, nil
}

// Store writes the snapshot to dst, which is either an s3:// path or a local directory.
func Store(ctx context.Context, snapshot *Snapshot, dst string, s3Client func(ctx context.Context) (ObjectPutter, error)) (string, error) {
	if s3Path, _ := ParseS3(dst); s3Path != nil {
		client, err := s3Client(ctx)
		if err != nil {
			return "", err
		}
		return StoreToS3(ctx, snapshot, client, s3Path)
	}
	return StoreToPath(ctx, snapshot, dst)
}
