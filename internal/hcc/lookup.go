package hcc

import "github.com/gyeh/rafscore/internal/model"

// CategoryMap resolves a normalized diagnosis code to its categories.
type CategoryMap interface {
	CCsFor(code string, m model.ModelName) []string
}

// HierarchyMap lists the child categories a parent category suppresses.
type HierarchyMap interface {
	Children(parent string, m model.ModelName) []string
}

// CoefficientTable looks up a coefficient by variable name. Names are
// matched case-insensitively.
type CoefficientTable interface {
	Coefficient(name string, m model.ModelName) (float64, bool)
}
