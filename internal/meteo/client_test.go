package meteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))
		assert.Equal(t, "Asia/Manila", r.URL.Query().Get("timezone"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_SumsPrecipitation(t *testing.T) {
	srv := newTestServer(t, `{
		"daily": {
			"time": ["2025-09-01", "2025-09-02", "2025-09-03"],
			"temperature_2m_max": [31.2, 30.8, 29.5],
			"temperature_2m_min": [24.1, 24.3, 23.9],
			"precipitation_sum": [10, null, 5]
		}
	}`, http.StatusOK)

	c := NewClient(WithBaseURL(srv.URL))
	f := c.Fetch(context.Background(), 14.6, 121.1)

	require.True(t, f.OK)
	assert.Equal(t, "open-meteo", f.Source)
	require.Len(t, f.ForecastDays, 3)

	// Missing precipitation counts as zero in the total.
	assert.Equal(t, 15.0, f.Precip3dSum)
	assert.Nil(t, f.ForecastDays[1].PrecipSum)
	require.NotNil(t, f.ForecastDays[0].PrecipSum)
	assert.Equal(t, 10.0, *f.ForecastDays[0].PrecipSum)
	assert.Equal(t, "2025-09-01", f.ForecastDays[0].Date)
	require.NotNil(t, f.ForecastDays[2].Tmax)
	assert.Equal(t, 29.5, *f.ForecastDays[2].Tmax)
}

func TestFetch_EmptyDaily(t *testing.T) {
	srv := newTestServer(t, `{"daily": {}}`, http.StatusOK)

	f := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), 12.9, 121.8)

	require.True(t, f.OK)
	assert.Empty(t, f.ForecastDays)
	assert.Zero(t, f.Precip3dSum)
}

func TestFetch_HTTPError(t *testing.T) {
	srv := newTestServer(t, "oops", http.StatusBadGateway)

	f := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), 14.6, 121.1)

	assert.False(t, f.OK)
	assert.NotEmpty(t, f.Error)
	assert.Empty(t, f.ForecastDays)
}

func TestFetch_BadJSON(t *testing.T) {
	srv := newTestServer(t, `{"daily": `, http.StatusOK)

	f := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), 14.6, 121.1)

	assert.False(t, f.OK)
	assert.NotEmpty(t, f.Error)
}

func TestFetch_TransportFailure(t *testing.T) {
	srv := newTestServer(t, "", http.StatusOK)
	srv.Close()

	f := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), 14.6, 121.1)

	assert.False(t, f.OK)
	assert.NotEmpty(t, f.Error)
}
