package assist

import (
	"fmt"
	"strings"

	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

const (
	// heavyRainMM is the 3-day precipitation total above which harvesting
	// should wait.
	heavyRainMM = 50.0

	// fallbackConfidence is the fixed confidence reported on synthesized
	// answers.
	fallbackConfidence = 40
)

// synthesizeFallback builds a deterministic answer from already-gathered
// facts. Used when the model call fails; it never fails itself.
func synthesizeFallback(
	price *openstat.PriceFact,
	weather *meteo.Forecast,
	techs *techniques.Result,
	kbResults []kb.SearchResult,
	modelErr string,
) *ModelAnswer {
	hasPrice := price != nil && price.Value != nil
	hasRain := weather != nil && weather.OK

	priceStr := "walang presyo"
	if hasPrice {
		priceStr = fmt.Sprintf("%g %s", *price.Value, price.Units)
	}
	ulanStr := "walang datos ng ulan"
	if hasRain {
		ulanStr = fmt.Sprintf("%g mm ulan (3 araw)", weather.Precip3dSum)
	}

	lines := []string{
		fmt.Sprintf("TL;DR: Batay sa nakuhang datos (%s, %s), mag-ingat sa susunod na hakbang at i-double check sa lokal na opisyal.", priceStr, ulanStr),
	}

	if hasRain && weather.Precip3dSum > heavyRainMM {
		lines = append(lines, "1. I-delay ang pag-ani hanggang humupa ang malakas na ulan.")
	} else {
		lines = append(lines, "1. Maaaring magpatuloy sa regular na gawain; bantayan pa rin ang kondisyon ng lupa.")
	}
	if hasPrice {
		lines = append(lines, "2. Itala ang kasalukuyang farmgate price para maikumpara sa susunod na linggo.")
	}
	if techs != nil && len(techs.Techniques) > 0 {
		lines = append(lines, fmt.Sprintf("3. Subukan: %s.", techs.Techniques[0].Title))
	}

	var cites []string
	if hasPrice {
		cites = append(cites, "PSA OpenSTAT")
	}
	if hasRain {
		cites = append(cites, "Open-Meteo")
	}
	if len(kbResults) > 0 {
		cites = append(cites, "Local KB")
	}
	lines = append(lines, fmt.Sprintf("Tiwala (fallback): %d | Pinagmulan: %s", fallbackConfidence, strings.Join(cites, ", ")))

	return &ModelAnswer{
		OK:   true,
		Text: strings.Join(lines, "\n"),
		Raw:  ModelRaw{Fallback: true, Error: modelErr},
	}
}
