package openstat

// Metadata is the PXWeb table description: one entry per dimension with
// parallel code/label slices.
type Metadata struct {
	Title     string     `json:"title"`
	Variables []Variable `json:"variables"`
}

type Variable struct {
	Code       string   `json:"code"`
	Text       string   `json:"text"`
	Values     []string `json:"values"`
	ValueTexts []string `json:"valueTexts"`
}

// Attempt records one (year, period) probe and the raw cell it returned.
// Kept on every result for diagnostics, success or not.
type Attempt struct {
	YearCode   string `json:"yearCode"`
	PeriodCode string `json:"periodCode"`
	RawValue   string `json:"rawValue"`
}

// PriceFact is the farmgate price result. Value stays nil when no period
// had a numeric cell; Stale marks values taken from a previous-year window.
type PriceFact struct {
	OK               bool      `json:"ok"`
	Source           string    `json:"source"`
	DatasetID        string    `json:"dataset_id"`
	Crop             string    `json:"crop"`
	Location         string    `json:"location"`
	CommodityCode    string    `json:"commodity_code"`
	CommodityLabel   string    `json:"commodity_label"`
	GeolocationCode  string    `json:"geolocation_code"`
	GeolocationLabel string    `json:"geolocation_label"`
	YearCode         string    `json:"year_code"`
	YearLabel        string    `json:"year_label"`
	PeriodCode       string    `json:"period_code,omitempty"`
	PeriodLabel      string    `json:"period_label,omitempty"`
	Value            *float64  `json:"value"`
	Raw              string    `json:"raw,omitempty"`
	Stale            bool      `json:"stale"`
	Units            string    `json:"units"`
	Attempts         []Attempt `json:"attempts"`
	Error            string    `json:"error,omitempty"`
}

func (m *Metadata) variable(code string) *Variable {
	for i := range m.Variables {
		if m.Variables[i].Code == code {
			return &m.Variables[i]
		}
	}
	return nil
}

func (m *Metadata) labelForCode(variableCode, valueCode string) string {
	v := m.variable(variableCode)
	if v == nil {
		return ""
	}
	for i, val := range v.Values {
		if val == valueCode && i < len(v.ValueTexts) {
			return v.ValueTexts[i]
		}
	}
	return ""
}
