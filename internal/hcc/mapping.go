package hcc

import (
	"sort"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

// GetCC returns the categories a single diagnosis code maps to under m.
func GetCC(code string, m model.ModelName, cm CategoryMap) []string {
	dx := normalize.DiagnosisCode(code)
	if dx == "" {
		return nil
	}
	return cm.CCsFor(dx, m)
}

// MapDiagnoses maps diagnosis codes to categories. The result is keyed by
// category; each value lists the normalized codes that produced it, sorted.
// Codes with no mapping are dropped.
func MapDiagnoses(codes []string, m model.ModelName, cm CategoryMap) map[string][]string {
	seen := make(map[string]struct{}, len(codes))
	byCC := make(map[string]map[string]struct{})
	for _, raw := range codes {
		dx := normalize.DiagnosisCode(raw)
		if dx == "" {
			continue
		}
		if _, ok := seen[dx]; ok {
			continue
		}
		seen[dx] = struct{}{}
		for _, c := range cm.CCsFor(dx, m) {
			if byCC[c] == nil {
				byCC[c] = make(map[string]struct{})
			}
			byCC[c][dx] = struct{}{}
		}
	}

	out := make(map[string][]string, len(byCC))
	for c, dxs := range byCC {
		list := make([]string, 0, len(dxs))
		for dx := range dxs {
			list = append(list, dx)
		}
		sort.Strings(list)
		out[c] = list
	}
	return out
}

// Categories returns the key set of a category→diagnoses map.
func Categories(ccToDx map[string][]string) model.CategorySet {
	s := make(model.CategorySet, len(ccToDx))
	for c := range ccToDx {
		s[c] = struct{}{}
	}
	return s
}
