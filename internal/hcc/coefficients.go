package hcc

import (
	"fmt"

	"github.com/gyeh/rafscore/internal/model"
)

// CoefficientPrefix picks the coefficient segment for the beneficiary.
func CoefficientPrefix(d model.Demographics, m model.ModelName) string {
	switch m.Info().Family {
	case model.FamilyESRD:
		return esrdPrefix(d)
	case model.FamilyRx:
		return rxPrefix(d)
	}
	return cmsPrefix(d)
}

func esrdPrefix(d model.Demographics) string {
	if g := d.GraftMonths; g != nil && *g >= 1 && *g <= 3 {
		return fmt.Sprintf("TRANSPLANT_KIDNEY_ONLY_%dM", *g)
	}
	if d.NewEnrollee {
		return "DNE_"
	}
	return "DI_"
}

func rxPrefix(d model.Demographics) string {
	switch {
	case d.LTI && d.NewEnrollee:
		return "Rx_NE_LTI_"
	case d.LTI:
		return "Rx_CE_LTI_"
	case d.NewEnrollee && d.LowIncome:
		return "Rx_NE_Lo_"
	case d.NewEnrollee:
		return "Rx_NE_NoLo_"
	}
	p := "Rx_CE_NoLow"
	if d.LowIncome {
		p = "Rx_CE_Low"
	}
	if d.Age >= 65 {
		return p + "Aged_"
	}
	return p + "NoAged_"
}

func cmsPrefix(d model.Demographics) string {
	switch {
	case d.LTI:
		return "INS_"
	case d.NewEnrollee && d.SNP:
		return "SNPNE_"
	case d.NewEnrollee:
		return "NE_"
	}
	dual := "N"
	if d.FBD {
		dual = "F"
	} else if d.PBD {
		dual = "P"
	}
	aged := "D"
	if d.Age >= 65 {
		aged = "A"
	}
	return "C" + dual + aged + "_"
}

// ApplyCoefficients looks up the demographic category, every category in
// ccs and every interaction with a value of at least 1. The result is keyed
// by demographic category, bare category id and interaction name. Missing
// coefficients are left out.
func ApplyCoefficients(d model.Demographics, ccs model.CategorySet, in *model.Interactions, m model.ModelName, tbl CoefficientTable) map[string]float64 {
	prefix := CoefficientPrefix(d, m)
	out := make(map[string]float64)

	if v, ok := tbl.Coefficient(prefix+d.Category, m); ok {
		out[d.Category] = v
	}
	for _, c := range ccs.Sorted() {
		if v, ok := tbl.Coefficient(prefix+"HCC"+c, m); ok {
			out[c] = v
		}
	}
	for _, name := range in.Names() {
		if val, _ := in.Get(name); val < 1 {
			continue
		}
		if v, ok := tbl.Coefficient(prefix+name, m); ok {
			out[name] = v
		}
	}
	return out
}
