package assist

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

const (
	defaultCrop     = "rice"
	defaultLocation = "philippines"
)

// coords is the fixed location lookup table. Unknown locations map to the
// nationwide centroid.
type coords struct {
	Lat float64
	Lon float64
}

var locationCoords = map[string]coords{
	"antipolo":    {Lat: 14.6, Lon: 121.1},
	"tarlac":      {Lat: 15.49, Lon: 120.59},
	"philippines": {Lat: 12.8797, Lon: 121.7740},
}

func resolveCoords(location string) coords {
	if c, ok := locationCoords[strings.ToLower(location)]; ok {
		return c
	}
	return locationCoords[defaultLocation]
}

// Service sequences the full answer flow.
type Service struct {
	price      PriceClient
	weather    WeatherClient
	techniques TechniqueClient
	kb         KnowledgeBase
	model      ModelClient
	log        *zap.Logger
}

func NewService(
	price PriceClient,
	weather WeatherClient,
	techniqueClient TechniqueClient,
	knowledgeBase KnowledgeBase,
	model ModelClient,
	log *zap.Logger,
) *Service {
	return &Service{
		price:      price,
		weather:    weather,
		techniques: techniqueClient,
		kb:         knowledgeBase,
		model:      model,
		log:        log,
	}
}

// Ask runs one orchestration: intent, facts, retrieval, prompt, model call.
// The only error it returns is for an empty message; every other failure
// degrades into the response itself.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.New("message is required")
	}

	if err := s.kb.Ensure(ctx); err != nil {
		s.log.Warn("kb ensure failed", zap.Error(err))
	}

	intent := ExtractIntent(message, req.Crop, req.Location)

	location := intent.Location
	if location == "" {
		location = defaultLocation
	}
	crop := intent.Crop
	if crop == "" {
		crop = defaultCrop
	}

	// The three fact fetchers and the KB query only read independent
	// external resources, so they run concurrently.
	var (
		priceFact   *openstat.PriceFact
		weatherFact *meteo.Forecast
		techFact    *techniques.Result
		kbResults   []kb.SearchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		priceFact = s.price.FetchFarmgatePrice(gctx, intent.Crop, location)
		return nil
	})
	g.Go(func() error {
		c := resolveCoords(intent.Location)
		weatherFact = s.weather.Fetch(gctx, c.Lat, c.Lon)
		return nil
	})
	g.Go(func() error {
		techFact = s.techniques.Fetch(gctx, crop)
		return nil
	})
	g.Go(func() error {
		results, err := s.kb.Search(message, intent.Crop, kb.DefaultTopK)
		if err != nil {
			s.log.Warn("kb search failed", zap.Error(err))
			results = []kb.SearchResult{}
		}
		kbResults = results
		return nil
	})
	_ = g.Wait()

	prompt := BuildPrompt(PromptInput{
		Crop:       crop,
		Location:   titleOrDefault(intent.Location, "Philippines"),
		Price:      priceFact,
		Weather:    weatherFact,
		Techniques: techFact,
		KB:         kbResults,
		UserQuery:  message,
	})

	res := s.model.Complete(ctx, prompt, req.History)

	var answer *ModelAnswer
	if res.OK {
		answer = &ModelAnswer{OK: true, Text: res.Text}
	} else {
		s.log.Info("model call failed, synthesizing fallback", zap.String("error", res.Error))
		answer = synthesizeFallback(priceFact, weatherFact, techFact, kbResults, res.Error)
	}

	return &AskResponse{
		OK:         true,
		Keywords:   intent,
		Price:      priceFact,
		Weather:    weatherFact,
		Techniques: techFact,
		KB:         kbResults,
		Prompt:     prompt,
		Qwen:       answer,
	}, nil
}

func titleOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
