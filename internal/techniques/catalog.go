package techniques

// Built-in catalog used whenever the remote store cannot help. Keyed by
// lower-cased crop name.
var fallbackCatalog = map[string][]Technique{
	"rice": {
		{
			Title: "Pag-aapply ng Pataba (Unang Topdress)",
			Steps: []string{
				"Suriin muna ang lupa",
				"Maglagay ng tamang dami ng urea",
				"Panatilihing 2-3cm ang tubig",
			},
		},
		{
			Title: "Alternating Wet and Dry (AWD)",
			Steps: []string{
				"Patuyuin ang palayan hanggang makita ang bitak",
				"Magpasok muli ng tubig 2cm",
				"Ulitin sa susunod na linggo",
			},
		},
	},
	"corn": {
		{
			Title: "Maagang Weed Control",
			Steps: []string{
				"Gamitin ang pre-emergent herbicide kung kinakailangan",
				"Manual na bunot sa 2 linggo",
				"Mulch kung posible",
			},
		},
	},
}

// Catalog returns the static techniques for a crop, or an empty list when
// the crop is unknown.
func Catalog(crop string) []Technique {
	if t, ok := fallbackCatalog[normalizeCrop(crop)]; ok {
		return t
	}
	return []Technique{}
}
