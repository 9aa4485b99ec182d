package monitor

import (
	"context"
	"time"
)

// Run bootstraps the gilt list when empty, fetches prices, then refreshes prices every
// hour at priceMinute and rediscovers the gilt list daily at discHour:discMinute local
// time until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, priceMinute, discHour, discMinute int) {
	if m.store.Len() == 0 {
		if _, err := m.RefreshGilts(ctx); err != nil {
			m.logger.Printf("Initial gilt list refresh failed: %v", err)
		}
	}
	if err := m.RefreshPrices(ctx); err != nil {
		m.logger.Printf("Initial price refresh failed: %v", err)
	}

	prices := time.NewTimer(m.untilHourly(priceMinute))
	defer prices.Stop()
	discovery := time.NewTimer(m.untilDaily(discHour, discMinute))
	defer discovery.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-prices.C:
			if err := m.RefreshPrices(ctx); err != nil {
				m.logger.Printf("Scheduled price refresh failed: %v", err)
			}
			prices.Reset(m.untilHourly(priceMinute))
		case <-discovery.C:
			if _, err := m.RefreshGilts(ctx); err != nil {
				m.logger.Printf("Scheduled gilt list refresh failed: %v", err)
			}
			discovery.Reset(m.untilDaily(discHour, discMinute))
		}
	}
}

func (m *Monitor) untilHourly(minute int) time.Duration {
	now := m.now()
	return nextHourly(now, minute).Sub(now)
}

func (m *Monitor) untilDaily(hour, minute int) time.Duration {
	now := m.now()
	return nextDaily(now, hour, minute).Sub(now)
}

// nextHourly returns the first instant after now at minute past the hour.
func nextHourly(now time.Time, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next
}

// nextDaily returns the first instant after now at hour:minute.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
