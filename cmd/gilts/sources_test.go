package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/config"
)

func sourceNames(q *collect.Quoter) []string {
	names := []string{}
	for _, s := range q.Sources {
		names = append(names, s.Source())
	}
	return names
}

func TestNewQuoter(t *testing.T) {
	site := collect.NewGiltsyieldCollector("")

	q := newQuoter(config.Config{}, nil, site)
	assert.Equal(t, []string{collect.SourceGiltsyield}, sourceNames(q))

	q = newQuoter(config.Config{PriceFeedURL: "http://feed.local/prices", UseDMO: true, UseDividendData: true}, nil, site)
	assert.Equal(t, []string{collect.SourceLiveFeed, collect.SourceGiltsyield, collect.SourceDMO, collect.SourceDividendData}, sourceNames(q))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2030-03-07")
	assert.NoError(t, err)
	assert.Equal(t, "2030-03-07", d.Format("2006-01-02"))

	_, err = parseDate("07/03/2030")
	assert.Error(t, err)
}
