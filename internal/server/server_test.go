package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/giltmonitor/internal/collect"
	"benritz/giltmonitor/internal/export"
	"benritz/giltmonitor/internal/monitor"
	"benritz/giltmonitor/internal/store"
	"benritz/giltmonitor/internal/types"
)

type listLister struct {
	gilts []*types.Gilt
}

func (l *listLister) Collect(ctx context.Context, date time.Time) (*collect.CollectedGilts, error) {
	if len(l.gilts) == 0 {
		return nil, types.ErrDataUnavailable
	}
	c := collect.NewCollectedGilts(l.Source(), date)
	c.Gilts = append(c.Gilts, l.gilts...)
	return c, nil
}

func (l *listLister) Source() string { return "Test" }

type parQuoter struct{}

func (parQuoter) CleanPrices(ctx context.Context, gilts []*types.Gilt, now time.Time) map[string]collect.Quote {
	quotes := map[string]collect.Quote{}
	for _, g := range gilts {
		quotes[g.ISIN] = collect.Quote{CleanPrice: 100, Source: collect.SourceGiltsyield, Timestamp: now}
	}
	return quotes
}

func newTestServer(t *testing.T, gilts ...*types.Gilt) http.Handler {
	t.Helper()
	now := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	s := store.Open(filepath.Join(t.TempDir(), "gilts.json"))
	m := monitor.New(s, &listLister{gilts: gilts}, parQuoter{}, monitor.Options{
		Now: func() time.Time { return now },
	})
	return New(m, "admin", "secret", nil).Handler()
}

func get(t *testing.T, h http.Handler, target string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var gilt2030 = &types.Gilt{
	Code:       "T30",
	Name:       "4% Treasury Gilt 2030",
	ISIN:       "GB00B52WS153",
	Maturity:   "2030-03-07",
	CouponRate: 0.04,
}

func TestGilts(t *testing.T) {
	h := newTestServer(t, gilt2030)

	rec := get(t, h, "/gilts?taxRate=0.4", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		LastUpdated string  `json:"lastUpdated"`
		Count       int     `json:"count"`
		TaxRate     float64 `json:"taxRate"`
		Gilts       []struct {
			ISIN            string   `json:"isin"`
			MaturityDisplay string   `json:"maturityDisplay"`
			DirtyPrice      float64  `json:"dirtyPrice"`
			GrossYTM        *float64 `json:"grossYTM"`
			NetYTM          *float64 `json:"netYTM"`
		} `json:"gilts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-03-07T00:00:00Z", body.LastUpdated)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 0.4, body.TaxRate)
	require.Len(t, body.Gilts, 1)
	assert.Equal(t, "07-Mar-30", body.Gilts[0].MaturityDisplay)
	assert.Equal(t, 100.0, body.Gilts[0].DirtyPrice)
	require.NotNil(t, body.Gilts[0].NetYTM)
	assert.Equal(t, 2.415, *body.Gilts[0].NetYTM)
}

func TestGiltsUnauthorized(t *testing.T) {
	h := newTestServer(t, gilt2030)

	for _, target := range []string{"/gilts", "/health", "/gilts/export.pdf"} {
		rec := get(t, h, target, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, `Basic realm="Gilts"`, rec.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/gilts", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGiltsNoneAvailable(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/gilts", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"No gilts available from configured sources"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, gilt2030)

	rec := get(t, h, "/health", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"gilts":0,"prices":false}`, rec.Body.String())

	get(t, h, "/gilts", true)

	rec = get(t, h, "/health", true)
	assert.JSONEq(t, `{"ok":true,"gilts":1,"prices":true}`, rec.Body.String())
}

func TestExports(t *testing.T) {
	h := newTestServer(t, gilt2030)

	rec := get(t, h, "/gilts/export.xlsx?taxRate=0.2", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="gilts.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotZero(t, rec.Body.Len())

	rec = get(t, h, "/gilts/export.pdf", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "%PDF-")
}

func TestMetricsIsPublic(t *testing.T) {
	h := newTestServer(t, gilt2030)

	rec := get(t, h, "/metrics", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreflight(t *testing.T) {
	h := newTestServer(t, gilt2030)

	req := httptest.NewRequest(http.MethodOptions, "/gilts", nil)
	req.Header.Set("Access-Control-Request-Headers", "authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestParseQuery(t *testing.T) {
	q := ParseQuery(url.Values{
		"taxRate":      {"0.45"},
		"couponMin":    {"1.5"},
		"couponMax":    {"abc"},
		"maturityFrom": {"2030-01-01"},
		"maturityTo":   {"soon"},
	})

	assert.Equal(t, 0.45, q.TaxRate)
	require.NotNil(t, q.CouponMin)
	assert.Equal(t, 1.5, *q.CouponMin)
	assert.Nil(t, q.CouponMax)
	require.NotNil(t, q.MaturityFrom)
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), *q.MaturityFrom)
	assert.Nil(t, q.MaturityTo)

	assert.Equal(t, monitor.Query{}, ParseQuery(url.Values{}))
}
