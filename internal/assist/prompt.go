package assist

import (
	"fmt"
	"strings"

	wl "github.com/abadojack/whatlanggo"

	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

// kbExcerptLen caps how much of each retrieved passage goes into the prompt.
const kbExcerptLen = 300

// PromptInput is everything the assembler needs. Pure data in, string out.
type PromptInput struct {
	Crop       string
	Location   string
	Price      *openstat.PriceFact
	Weather    *meteo.Forecast
	Techniques *techniques.Result
	KB         []kb.SearchResult
	UserQuery  string
}

// BuildPrompt merges all gathered facts plus retrieved passages into one
// structured prompt: persona preamble, labeled context lines (absent values
// omitted), knowledge-base excerpts tagged with their source, then the
// literal question.
func BuildPrompt(in PromptInput) string {
	priceLine := "walang datos"
	if in.Price != nil && in.Price.Value != nil {
		priceLine = fmt.Sprintf("%.2f %s", *in.Price.Value, in.Price.Units)
	}

	precipLine := "walang datos"
	if in.Weather != nil && in.Weather.OK {
		precipLine = fmt.Sprintf("%g mm (3-araw)", in.Weather.Precip3dSum)
	}

	techLine := "walang teknik ngayon"
	if in.Techniques != nil && len(in.Techniques.Techniques) > 0 {
		techLine = in.Techniques.Techniques[0].Title
	}

	var context []string
	addLine := func(label, val string) {
		if val != "" {
			context = append(context, fmt.Sprintf("- %s: %s", label, val))
		}
	}
	addLine("Pananim", in.Crop)
	addLine("Lokasyon", in.Location)
	addLine("Presyo (farmgate, tantiya)", priceLine)
	addLine("Ulan", precipLine)
	addLine("Teknik na halimbawa", techLine)

	for _, c := range in.KB {
		text := strings.Join(strings.Fields(c.Text), " ")
		if len(text) > kbExcerptLen {
			text = text[:kbExcerptLen]
		}
		context = append(context, fmt.Sprintf("*KB* %s (pinagmulan: %s)", text, c.Source))
	}

	var b strings.Builder
	b.WriteString("Ikaw ay isang maunawaing AI na tumutulong sa magsasaka. ")
	b.WriteString(responseLanguageLine(in.UserQuery))
	b.WriteString("\n")
	b.WriteString("Gumawa ng maikling TL;DR (1 pangungusap), pagkatapos ay 3 numbered na hakbang na praktikal.\n")
	b.WriteString("Ipakita sa dulo ang 'Tiwala:' (estimate 0-100) at banggitin ang pinagmulan: PSA OpenSTAT, Open-Meteo, Local PDF Guides.\n\n")
	b.WriteString("KONTEKSTO:\n")
	b.WriteString(strings.Join(context, "\n"))
	b.WriteString("\n\nTanong ng magsasaka: ")
	b.WriteString(in.UserQuery)
	b.WriteString("\n\nSagutan ngayon:")
	return b.String()
}

// responseLanguageLine names the language the model should answer in,
// following the language of the question. Tagalog is the default; most
// farmer questions mix Tagalog and English and detection leans Tagalog.
func responseLanguageLine(query string) string {
	info := wl.Detect(query)
	if info.Lang == wl.Eng && info.IsReliable() {
		return "Answer in warm, clear English."
	}
	return "Sumagot sa mainit at malinaw na Tagalog."
}
