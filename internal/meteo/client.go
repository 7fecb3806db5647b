// Package meteo fetches short-range daily forecasts from Open-Meteo.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://api.open-meteo.com"
	defaultTimezone = "Asia/Manila"

	sourceTag    = "open-meteo"
	forecastDays = 3
)

// Day is one forecast day. Pointers keep "value absent" distinct from zero.
type Day struct {
	Date      string   `json:"date"`
	Tmax      *float64 `json:"tmax"`
	Tmin      *float64 `json:"tmin"`
	PrecipSum *float64 `json:"precip_sum"`
}

// Forecast is the weather fact. Precip3dSum is the sum of the available
// per-day precipitation values, missing days counting as zero.
type Forecast struct {
	OK           bool    `json:"ok"`
	Source       string  `json:"source,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	ForecastDays []Day   `json:"forecast_days,omitempty"`
	Precip3dSum  float64 `json:"precip_3d_sum"`
	Error        string  `json:"error,omitempty"`
}

type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimezone(tz string) Option {
	return func(c *Client) { c.timezone = tz }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		timezone: defaultTimezone,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch retrieves the 3-day daily forecast for the given coordinates. Any
// transport or decode error yields ok:false; there is no retry and no
// partial result.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) *Forecast {
	out := &Forecast{Lat: lat, Lon: lon}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", strconv.Itoa(forecastDays))
	q.Set("timezone", c.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	resp, err := c.http.Do(req)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out.Error = fmt.Sprintf("forecast request returned status %d", resp.StatusCode)
		return out
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		out.Error = fmt.Sprintf("decoding forecast: %v", err)
		return out
	}

	at := func(vals []*float64, i int) *float64 {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}

	for i, date := range api.Daily.Time {
		day := Day{
			Date:      date,
			Tmax:      at(api.Daily.TemperatureMax, i),
			Tmin:      at(api.Daily.TemperatureMin, i),
			PrecipSum: at(api.Daily.PrecipitationSum, i),
		}
		if day.PrecipSum != nil {
			out.Precip3dSum += *day.PrecipSum
		}
		out.ForecastDays = append(out.ForecastDays, day)
	}

	out.OK = true
	out.Source = sourceTag
	return out
}
