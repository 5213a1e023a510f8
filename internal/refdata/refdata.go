// Package refdata loads the versioned reference tables that drive the risk
// engine. Tables are built once and shared read-only across calculations.
package refdata

import (
	"fmt"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
)

// Key identifies a table entry: a code (diagnosis, category or coefficient
// variable) under one model.
type Key struct {
	Code  string
	Model model.ModelName
}

// ReferenceData bundles every table the engine reads. Nothing in the engine
// mutates it.
type ReferenceData struct {
	DxToCC             map[Key][]string
	Hierarchies        map[Key][]string
	Coefficients       map[Key]float64
	Chronic            map[Key]bool
	EligibleProcedures map[string]struct{}
}

// New returns an empty bundle.
func New() *ReferenceData {
	return &ReferenceData{
		DxToCC:             make(map[Key][]string),
		Hierarchies:        make(map[Key][]string),
		Coefficients:       make(map[Key]float64),
		Chronic:            make(map[Key]bool),
		EligibleProcedures: make(map[string]struct{}),
	}
}

// CCsFor returns the categories a normalized diagnosis code maps to.
func (rd *ReferenceData) CCsFor(code string, m model.ModelName) []string {
	return rd.DxToCC[Key{code, m}]
}

// Children returns the categories suppressed by parent.
func (rd *ReferenceData) Children(parent string, m model.ModelName) []string {
	return rd.Hierarchies[Key{parent, m}]
}

// Coefficient looks up a variable case-insensitively.
func (rd *ReferenceData) Coefficient(name string, m model.ModelName) (float64, bool) {
	v, ok := rd.Coefficients[Key{strings.ToLower(name), m}]
	return v, ok
}

// IsChronic reports whether a category is flagged chronic.
func (rd *ReferenceData) IsChronic(cc string, m model.ModelName) bool {
	return rd.Chronic[Key{cc, m}]
}

// Summary describes table sizes for logging.
func (rd *ReferenceData) Summary() string {
	return fmt.Sprintf("dx_to_cc=%d hierarchies=%d coefficients=%d chronic=%d eligible_procedures=%d",
		len(rd.DxToCC), len(rd.Hierarchies), len(rd.Coefficients), len(rd.Chronic), len(rd.EligibleProcedures))
}

func addUnique(m map[Key][]string, k Key, v string) {
	for _, existing := range m[k] {
		if existing == v {
			return
		}
	}
	m[k] = append(m[k], v)
	model.SortCategories(m[k])
}
