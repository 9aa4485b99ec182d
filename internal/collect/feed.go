package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var SourceLiveFeed = "LiveFeed"

// LiveFeed reads clean prices from a JSON endpoint returning an object of ISIN to price.
type LiveFeed struct {
	URL    string
	Client *http.Client
}

func NewLiveFeed(url string) *LiveFeed {
	return &LiveFeed{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *LiveFeed) Source() string {
	return SourceLiveFeed
}

func (f *LiveFeed) Prices(ctx context.Context, _ time.Time) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("live feed responded with %d", resp.StatusCode)
	}

	var data map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode live feed: %w", err)
	}

	prices := make(map[string]float64, len(data))
	for isin, raw := range data {
		if price, ok := feedPrice(raw); ok {
			prices[isin] = price
		}
	}

	return prices, nil
}

// feedPrice accepts prices sent as JSON numbers or numeric strings.
func feedPrice(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n > 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, n > 0
		}
	}

	return 0, false
}
