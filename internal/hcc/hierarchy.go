package hcc

import "github.com/gyeh/rafscore/internal/model"

// ApplyHierarchies returns ccs with suppressed categories removed. The
// model's fixed removal rules run first, then every present parent
// suppresses its present children. Removals are collected before any are
// applied, so the result does not depend on iteration order. ccs is not
// modified. Unknown models get no fixed rules.
func ApplyHierarchies(ccs model.CategorySet, m model.ModelName, h HierarchyMap) model.CategorySet {
	out := ccs.Clone()
	for _, r := range specFor(m).rules {
		r.apply(out)
	}

	drop := make(model.CategorySet)
	for parent := range out {
		for _, child := range h.Children(parent, m) {
			if child != parent && out.Has(child) {
				drop[child] = struct{}{}
			}
		}
	}
	for c := range drop {
		delete(out, c)
	}
	return out
}

func (r hierarchyRule) apply(s model.CategorySet) {
	if len(r.unlessAny) > 0 && s.HasAny(r.unlessAny...) {
		return
	}
	for _, c := range r.remove {
		delete(s, c)
	}
}
