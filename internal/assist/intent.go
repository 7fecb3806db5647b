package assist

import (
	"regexp"
	"strings"
)

const (
	IntentGeneral   = "general"
	IntentPrice     = "price"
	IntentWeather   = "weather"
	IntentTechnique = "technique"
)

// knownCrops is the fixed crop vocabulary scanned for in messages.
var knownCrops = []string{"rice", "palay", "corn", "maize", "banana", "mango"}

var (
	priceTerms     = regexp.MustCompile(`presyo|price|benta|sell`)
	weatherTerms   = regexp.MustCompile(`ulan|weather|forecast|bagyo|rain`)
	techniqueTerms = regexp.MustCompile(`ani|harvest|pataba|fertilizer|peste|technique|practice|tanong`)
)

// ExtractIntent parses a raw message into crop, location and intent. It
// always returns a record: unresolved fields stay empty. The location is
// taken from the hint only; there is no text-based location detection.
func ExtractIntent(message, cropHint, locationHint string) Intent {
	lower := strings.ToLower(message)

	crop := ""
	for _, c := range knownCrops {
		if strings.Contains(lower, c) {
			crop = c
			break
		}
	}
	if crop == "" && cropHint != "" {
		crop = strings.ToLower(cropHint)
	}

	intent := IntentGeneral
	switch {
	case priceTerms.MatchString(lower):
		intent = IntentPrice
	case weatherTerms.MatchString(lower):
		intent = IntentWeather
	case techniqueTerms.MatchString(lower):
		intent = IntentTechnique
	}

	return Intent{Crop: crop, Location: locationHint, Intent: intent}
}
