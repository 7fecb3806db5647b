// Package openstat fetches farmgate prices from the PSA OpenSTAT PXWeb API.
// Dimension codes are resolved from the table metadata, which is fetched once
// per process and cached on the client.
package openstat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://openstat.psa.gov.ph:443/PXWeb/api/v1/en/DB/2M/NFG"
	defaultDatasetID = "0032M4AFN01.px"

	sourceTag = "psa-openstat"

	// PXWeb uses ".." for cells with no published figure.
	missingCell = ".."

	// Fallback codes when free-text resolution finds nothing.
	defaultCommodityCode   = "1"         // Palay Other Variety
	defaultGeolocationCode = "000000000" // PHILIPPINES

	periodDecember = "11"
	periodAnnual   = "12"
)

type Client struct {
	baseURL   string
	datasetID string
	http      *http.Client
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	meta *Metadata
}

type Option func(*Client)

// WithBaseURL points the client at a different PXWeb root (tests use an
// httptest server).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithDatasetID(id string) Option {
	return func(c *Client) { c.datasetID = id }
}

// WithClock injects the clock used to pick the walk-back starting month.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		datasetID: defaultDatasetID,
		http:      &http.Client{Timeout: 20 * time.Second},
		log:       log,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) datasetURL() string {
	return c.baseURL + "/" + c.datasetID + "/"
}

// fetchMetadata returns the cached table metadata, fetching it on first use.
func (c *Client) fetchMetadata(ctx context.Context) (*Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta != nil {
		return c.meta, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.datasetURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating metadata request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request returned status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	c.meta = &meta
	return c.meta, nil
}

// ResetMetadata drops the cached metadata so the next fetch re-reads it.
func (c *Client) ResetMetadata() {
	c.mu.Lock()
	c.meta = nil
	c.mu.Unlock()
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(label, ".", "")))
}

// findCodeByLabel resolves free text to a dimension code by case-insensitive
// substring match against the normalized value labels.
func findCodeByLabel(meta *Metadata, variableCode, searchLabel string) string {
	if searchLabel == "" {
		return ""
	}
	v := meta.variable(variableCode)
	if v == nil {
		return ""
	}
	target := normalizeLabel(searchLabel)
	for i, txt := range v.ValueTexts {
		if strings.Contains(normalizeLabel(txt), target) && i < len(v.Values) {
			return v.Values[i]
		}
	}
	return ""
}

// yearToCode maps calendar years onto the table's 0-based year codes
// (2010 -> "0" ... 2025 -> "15"), clamping outside the published range.
func yearToCode(year int) string {
	if year < 2010 {
		year = 2010
	}
	if year > 2025 {
		year = 2025
	}
	return strconv.Itoa(year - 2010)
}

type pxQuery struct {
	Query    []pxQueryItem `json:"query"`
	Response pxFormat      `json:"response"`
}

type pxQueryItem struct {
	Code      string      `json:"code"`
	Selection pxSelection `json:"selection"`
}

type pxSelection struct {
	Filter string   `json:"filter"`
	Values []string `json:"values"`
}

type pxFormat struct {
	Format string `json:"format"`
}

type pxData struct {
	Data []struct {
		Key    []string `json:"key"`
		Values []string `json:"values"`
	} `json:"data"`
}

func buildQuery(commodityCode, geolocationCode, yearCode, periodCode string) pxQuery {
	item := func(code, value string) pxQueryItem {
		return pxQueryItem{Code: code, Selection: pxSelection{Filter: "item", Values: []string{value}}}
	}
	return pxQuery{
		Query: []pxQueryItem{
			item("Geolocation", geolocationCode),
			item("Commodity", commodityCode),
			item("Year", yearCode),
			item("Period", periodCode),
		},
		Response: pxFormat{Format: "json"},
	}
}

// queryValue probes a single (year, period) cell. A nil value with nil error
// means the cell exists but holds the missing-data placeholder.
func (c *Client) queryValue(ctx context.Context, commodityCode, geolocationCode, yearCode, periodCode string) (string, *float64, error) {
	body, err := json.Marshal(buildQuery(commodityCode, geolocationCode, yearCode, periodCode))
	if err != nil {
		return "", nil, fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.datasetURL(), bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("querying data point: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("data query returned status %d", resp.StatusCode)
	}

	var out pxData
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("decoding data point: %w", err)
	}

	if len(out.Data) == 0 || len(out.Data[0].Values) == 0 {
		return "", nil, nil
	}
	raw := out.Data[0].Values[0]
	if raw == "" || raw == missingCell {
		return raw, nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil, nil
	}
	return raw, &f, nil
}

// FetchFarmgatePrice resolves crop/location to dataset codes and walks
// backward through time periods until a published value turns up. It never
// returns an error: transport problems surface on the fact itself.
func (c *Client) FetchFarmgatePrice(ctx context.Context, crop, location string) *PriceFact {
	fact := &PriceFact{
		OK:        true,
		Source:    sourceTag,
		DatasetID: c.datasetID,
		Crop:      crop,
		Location:  location,
		Units:     "PHP/kg",
		Attempts:  []Attempt{},
	}

	meta, err := c.fetchMetadata(ctx)
	if err != nil {
		c.log.Warn("openstat metadata fetch failed", zap.Error(err))
		fact.OK = false
		fact.Error = err.Error()
		return fact
	}

	commodityCode := findCodeByLabel(meta, "Commodity", crop)
	if commodityCode == "" {
		commodityCode = defaultCommodityCode
	}
	geolocationCode := findCodeByLabel(meta, "Geolocation", location)
	if geolocationCode == "" {
		geolocationCode = defaultGeolocationCode
	}
	fact.CommodityCode = commodityCode
	fact.CommodityLabel = meta.labelForCode("Commodity", commodityCode)
	fact.GeolocationCode = geolocationCode
	fact.GeolocationLabel = meta.labelForCode("Geolocation", geolocationCode)

	now := c.now()
	currentYearCode := yearToCode(now.Year())
	chosenYearCode := currentYearCode
	chosenPeriodCode := ""
	var found *float64
	foundRaw := ""

	probe := func(yearCode, periodCode string) *float64 {
		raw, val, err := c.queryValue(ctx, commodityCode, geolocationCode, yearCode, periodCode)
		if err != nil {
			c.log.Warn("openstat data query failed",
				zap.String("year_code", yearCode),
				zap.String("period_code", periodCode),
				zap.Error(err))
			raw = ""
		}
		fact.Attempts = append(fact.Attempts, Attempt{YearCode: yearCode, PeriodCode: periodCode, RawValue: raw})
		if val != nil {
			foundRaw = raw
		}
		return val
	}

	// Current year, monthly, walking backward from the last completed month.
	lastMonthIndex := int(now.Month()) - 2
	if lastMonthIndex < 0 {
		lastMonthIndex = 0
	}
	for m := lastMonthIndex; m >= 0; m-- {
		if v := probe(currentYearCode, strconv.Itoa(m)); v != nil {
			chosenPeriodCode = strconv.Itoa(m)
			found = v
			break
		}
	}

	// Previous-year December, then the previous-year annual aggregate.
	// Anything found here is stale.
	if found == nil {
		prevYearCode := yearToCode(now.Year() - 1)
		if v := probe(prevYearCode, periodDecember); v != nil {
			chosenYearCode = prevYearCode
			chosenPeriodCode = periodDecember
			found = v
			fact.Stale = true
		} else if v := probe(prevYearCode, periodAnnual); v != nil {
			chosenYearCode = prevYearCode
			chosenPeriodCode = periodAnnual
			found = v
			fact.Stale = true
		}
	}

	fact.YearCode = chosenYearCode
	fact.YearLabel = c.periodText(meta, "Year", chosenYearCode)
	if chosenPeriodCode != "" {
		fact.PeriodCode = chosenPeriodCode
		fact.PeriodLabel = c.periodText(meta, "Period", chosenPeriodCode)
	}
	fact.Value = found
	fact.Raw = foundRaw
	return fact
}

// periodText maps a positional code ("0".."12") to its display label.
func (c *Client) periodText(meta *Metadata, variableCode, code string) string {
	v := meta.variable(variableCode)
	if v == nil {
		return ""
	}
	idx, err := strconv.Atoi(code)
	if err != nil || idx < 0 || idx >= len(v.ValueTexts) {
		return ""
	}
	return v.ValueTexts[idx]
}
