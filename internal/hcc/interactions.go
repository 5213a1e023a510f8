package hcc

import (
	"strconv"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
)

// medicaidDual lists the dual codes that count as Medicaid for new enrollees.
var medicaidDual = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true, "06": true, "08": true,
}

// ApplyInteractions computes every interaction variable for the beneficiary:
// demographic terms, dual-status terms (only when a dual flag is set), the
// model's disease terms and the category counts. Disease and count
// variables are always present, with value 0 when they do not apply.
func ApplyInteractions(d model.Demographics, ccs model.CategorySet, m model.ModelName) *model.Interactions {
	in := model.NewInteractions()
	demographicInteractions(in, d)
	dualInteractions(in, d)
	diseaseInteractions(in, d, ccs, specFor(m))
	countInteractions(in, len(ccs))
	return in
}

func demographicInteractions(in *model.Interactions, d model.Demographics) {
	female := strings.HasPrefix(d.Category, "F")
	male := strings.HasPrefix(d.Category, "M")
	aged := !d.NonAged
	in.SetBool("OriginallyDisabled_Female", aged && d.OrigDisabled && female)
	in.SetBool("OriginallyDisabled_Male", aged && d.OrigDisabled && male)

	in.SetBool("LTI_Aged", d.LTI && aged)
	in.SetBool("LTI_NonAged", d.LTI && d.NonAged)

	mcaid := d.NewEnrollee && medicaidDual[d.DualElgblCd]
	origds := d.Age >= 65 && d.OREC == "1"
	cat := d.Category
	in.SetBool("NMCAID_NORIGDIS_"+cat, !mcaid && !origds)
	in.SetBool("MCAID_NORIGDIS_"+cat, mcaid && !origds)
	in.SetBool("NMCAID_ORIGDIS_"+cat, !mcaid && origds)
	in.SetBool("MCAID_ORIGDIS_"+cat, mcaid && origds)
}

func dualInteractions(in *model.Interactions, d model.Demographics) {
	female := d.Female()
	aged := !d.NonAged
	cat := d.Category
	if d.FBD {
		in.SetBool("FBDual_Female_Aged", female && aged)
		in.SetBool("FBDual_Female_NonAged", female && d.NonAged)
		in.SetBool("FBDual_Male_Aged", !female && aged)
		in.SetBool("FBDual_Male_NonAged", !female && d.NonAged)
		in.SetBool("FBD_NORIGDIS_"+cat, !d.OrigDisabled)
		in.SetBool("FBD_ORIGDIS_"+cat, d.OrigDisabled)
	}
	if d.PBD {
		in.SetBool("PBDual_Female_Aged", female && aged)
		in.SetBool("PBDual_Female_NonAged", female && d.NonAged)
		in.SetBool("PBDual_Male_Aged", !female && aged)
		in.SetBool("PBDual_Male_NonAged", !female && d.NonAged)
		in.SetBool("ND_PBD_NORIGDIS_"+cat, !d.FBD && !d.OrigDisabled)
		in.SetBool("ND_PBD_ORIGDIS_"+cat, !d.FBD && d.OrigDisabled)
	}
}

func diseaseInteractions(in *model.Interactions, d model.Demographics, ccs model.CategorySet, spec *modelSpec) {
	groups := make(map[string]bool, len(spec.groups))
	for _, g := range spec.groups {
		groups[g.name] = ccs.HasAny(g.ccs...)
	}
	for _, tm := range spec.terms {
		in.SetBool(tm.name, tm.eval(d, ccs, groups))
	}
}

func (tm term) eval(d model.Demographics, ccs model.CategorySet, groups map[string]bool) bool {
	for _, f := range tm.factors {
		var ok bool
		switch f.kind {
		case factorGroup:
			ok = groups[f.ref]
		case factorCC:
			ok = ccs.Has(f.ref)
		case factorDisabled:
			ok = d.Disabled
		case factorNonAged:
			ok = d.NonAged
		}
		if !ok {
			return false
		}
	}
	return true
}

func countInteractions(in *model.Interactions, n int) {
	for i := 1; i <= 9; i++ {
		in.SetBool("D"+strconv.Itoa(i), n == i)
	}
	in.SetBool("D10P", n >= 10)
}

// demographicPrefixes mark the interactions that depend on demographics alone.
var demographicPrefixes = []string{"NMCAID_", "MCAID_", "LTI_", "OriginallyDisabled_"}

// DemographicOnly returns the subset of in that depends on demographics alone.
func DemographicOnly(in *model.Interactions) *model.Interactions {
	return in.Filter(func(name string, _ int) bool {
		for _, p := range demographicPrefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	})
}
