package assist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/logger"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

type stubPrice struct {
	fact        *openstat.PriceFact
	gotCrop     string
	gotLocation string
}

func (s *stubPrice) FetchFarmgatePrice(ctx context.Context, crop, location string) *openstat.PriceFact {
	s.gotCrop = crop
	s.gotLocation = location
	return s.fact
}

type stubWeather struct {
	fact   *meteo.Forecast
	gotLat float64
	gotLon float64
}

func (s *stubWeather) Fetch(ctx context.Context, lat, lon float64) *meteo.Forecast {
	s.gotLat = lat
	s.gotLon = lon
	return s.fact
}

type stubTechniques struct {
	fact    *techniques.Result
	gotCrop string
}

func (s *stubTechniques) Fetch(ctx context.Context, crop string) *techniques.Result {
	s.gotCrop = crop
	return s.fact
}

type stubKB struct {
	results   []kb.SearchResult
	ensures   int
	ensureErr error
	searchErr error
	gotQuery  string
	gotCrop   string
}

func (s *stubKB) Ensure(ctx context.Context) error {
	s.ensures++
	return s.ensureErr
}

func (s *stubKB) Search(query, crop string, topK int) ([]kb.SearchResult, error) {
	s.gotQuery = query
	s.gotCrop = crop
	return s.results, s.searchErr
}

type stubModel struct {
	result    ModelResult
	gotPrompt string
	calls     int
}

func (s *stubModel) Complete(ctx context.Context, prompt string, history []ChatMessage) ModelResult {
	s.gotPrompt = prompt
	s.calls++
	return s.result
}

type fixture struct {
	price      *stubPrice
	weather    *stubWeather
	techniques *stubTechniques
	kb         *stubKB
	model      *stubModel
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		price: &stubPrice{fact: &openstat.PriceFact{
			OK: true, Source: "psa-openstat", Value: floatPtr(23.5), Units: "PHP/kg",
		}},
		weather: &stubWeather{fact: &meteo.Forecast{
			OK: true, Source: "open-meteo", Precip3dSum: 12,
		}},
		techniques: &stubTechniques{fact: &techniques.Result{
			OK: true, Source: techniques.SourceFallback, Techniques: techniques.Catalog("rice"),
		}},
		kb: &stubKB{results: []kb.SearchResult{
			{ID: "gabay.pdf::0", Source: "gabay.pdf", Text: "Ang pag-aani ng palay...", Score: 2},
		}},
		model: &stubModel{result: ModelResult{OK: true, Text: "Narito ang sagot."}},
	}
	f.service = NewService(f.price, f.weather, f.techniques, f.kb, f.model, logger.NewTest(t))
	return f
}

func TestAsk_EmptyMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ask(context.Background(), AskRequest{Message: "   "})
	assert.Error(t, err)
}

func TestAsk_ModelSuccess(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.Ask(context.Background(), AskRequest{Message: "Ano ang presyo ng palay?"})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, "palay", resp.Keywords.Crop)
	assert.Equal(t, IntentPrice, resp.Keywords.Intent)
	require.NotNil(t, resp.Qwen)
	assert.True(t, resp.Qwen.OK)
	assert.Equal(t, "Narito ang sagot.", resp.Qwen.Text)
	assert.False(t, resp.Qwen.Raw.Fallback)
	assert.Equal(t, 1, f.model.calls)
	assert.NotEmpty(t, resp.Prompt)
	assert.Equal(t, resp.Prompt, f.model.gotPrompt)
}

func TestAsk_ModelFailureSynthesizesFallback(t *testing.T) {
	f := newFixture(t)
	f.model.result = ModelResult{Error: "HTTP 503: service unavailable"}

	resp, err := f.service.Ask(context.Background(), AskRequest{
		Message:  "Kailan mag-ani ng palay?",
		Crop:     "palay",
		Location: "Tarlac",
	})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	require.NotNil(t, resp.Qwen)
	assert.True(t, resp.Qwen.OK)
	assert.True(t, resp.Qwen.Raw.Fallback)
	assert.Equal(t, "HTTP 503: service unavailable", resp.Qwen.Raw.Error)
	assert.Contains(t, resp.Qwen.Text, "Tiwala (fallback): 40")
	assert.Contains(t, resp.Qwen.Text, "PSA OpenSTAT")
}

func TestAsk_DefaultsWhenNothingResolves(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ask(context.Background(), AskRequest{Message: "kumusta po kayo"})
	require.NoError(t, err)

	assert.Equal(t, "philippines", f.price.gotLocation)
	assert.Empty(t, f.price.gotCrop)
	assert.Equal(t, "rice", f.techniques.gotCrop)
	// Unknown location maps to the nationwide centroid.
	assert.Equal(t, 12.8797, f.weather.gotLat)
	assert.Equal(t, 121.7740, f.weather.gotLon)
}

func TestAsk_KnownLocationCoords(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ask(context.Background(), AskRequest{
		Message:  "may ulan ba",
		Location: "Antipolo",
	})
	require.NoError(t, err)

	assert.Equal(t, 14.6, f.weather.gotLat)
	assert.Equal(t, 121.1, f.weather.gotLon)
	assert.Equal(t, "Antipolo", f.price.gotLocation)
}

func TestAsk_EnsuresKBBeforeSearching(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ask(context.Background(), AskRequest{Message: "paano magtanim ng palay"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.kb.ensures)
	assert.Equal(t, "paano magtanim ng palay", f.kb.gotQuery)
	assert.Equal(t, "palay", f.kb.gotCrop)
}

func TestAsk_DegradesWhenEverythingFails(t *testing.T) {
	f := newFixture(t)
	f.price.fact = &openstat.PriceFact{OK: false, Error: "timeout"}
	f.weather.fact = &meteo.Forecast{OK: false, Error: "timeout"}
	f.techniques.fact = &techniques.Result{OK: true, Source: techniques.SourceErrorFallback, Techniques: []techniques.Technique{}}
	f.kb.results = nil
	f.kb.ensureErr = errors.New("disk full")
	f.kb.searchErr = errors.New("disk full")
	f.model.result = ModelResult{Error: "down"}

	resp, err := f.service.Ask(context.Background(), AskRequest{Message: "ano gagawin ko"})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.True(t, resp.Qwen.Raw.Fallback)
	assert.Contains(t, resp.Qwen.Text, "walang presyo")
	assert.Contains(t, resp.Qwen.Text, "walang datos ng ulan")
	// No contributing sources at all.
	assert.Contains(t, resp.Qwen.Text, "Tiwala (fallback): 40 | Pinagmulan: ")
}

func TestAsk_ResponseAggregatesEverything(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.Ask(context.Background(), AskRequest{Message: "presyo ng palay sa tarlac", Location: "tarlac"})
	require.NoError(t, err)

	assert.Same(t, f.price.fact, resp.Price)
	assert.Same(t, f.weather.fact, resp.Weather)
	assert.Same(t, f.techniques.fact, resp.Techniques)
	assert.Equal(t, f.kb.results, resp.KB)
	assert.NotEmpty(t, resp.Prompt)
}
