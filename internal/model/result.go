package model

import "sort"

// RAFResult is the output of one risk calculation.
type RAFResult struct {
	RiskScore             float64              `json:"risk_score"`
	RiskScoreDemographics float64              `json:"risk_score_demographics"`
	RiskScoreChronicOnly  float64              `json:"risk_score_chronic_only"`
	RiskScoreHCC          float64              `json:"risk_score_hcc"`
	HCCList               []string             `json:"hcc_list"`
	CCToDx                map[string][]string  `json:"cc_to_dx"`
	Coefficients          map[string]float64   `json:"coefficients"`
	Interactions          *Interactions        `json:"interactions"`
	Demographics          Demographics         `json:"demographics"`
	ModelName             ModelName            `json:"model_name"`
	Version               string               `json:"version"`
	DiagnosisCodes        []string             `json:"diagnosis_codes"`
	ServiceLevelRecords   []ServiceLevelRecord `json:"service_level_data,omitempty"`
}

// SumCoefficients adds coefficient values in key order so totals are
// reproducible across runs.
func SumCoefficients(c map[string]float64) float64 {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var total float64
	for _, k := range keys {
		total += c[k]
	}
	return total
}
