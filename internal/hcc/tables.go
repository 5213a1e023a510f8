package hcc

import "github.com/gyeh/rafscore/internal/model"

// factorKind selects what a term factor reads.
type factorKind int

const (
	factorGroup    factorKind = iota // diagnostic group present
	factorCC                         // single category present
	factorDisabled                   // beneficiary currently disabled
	factorNonAged                    // beneficiary age <= 64
)

type factor struct {
	kind factorKind
	ref  string
}

func grp(name string) factor { return factor{factorGroup, name} }
func cc(id string) factor    { return factor{factorCC, id} }

var (
	disabled = factor{kind: factorDisabled}
	nonAged  = factor{kind: factorNonAged}
)

// term is one disease interaction variable: the product of its factors.
type term struct {
	name    string
	factors []factor
}

func t(name string, factors ...factor) term { return term{name, factors} }

// group is a diagnostic aggregate: 1 when any listed category is present.
type group struct {
	name string
	ccs  []string
}

// hierarchyRule removes categories before the hierarchy table is applied.
// With unlessAny set, removal only happens when none of those are present.
type hierarchyRule struct {
	remove    []string
	unlessAny []string
}

// modelSpec carries the data that differs between model variants.
type modelSpec struct {
	rules  []hierarchyRule
	groups []group
	terms  []term
}

func specFor(m model.ModelName) *modelSpec {
	if s, ok := modelSpecs[m]; ok {
		return s
	}
	return &modelSpec{}
}

var modelSpecs = map[model.ModelName]*modelSpec{
	model.CMSHCCV28: {
		rules: []hierarchyRule{
			{remove: []string{"223"}, unlessAny: []string{"221", "222", "224", "225", "226"}},
		},
		groups: []group{
			{"CANCER_V28", []string{"17", "18", "19", "20", "21", "22", "23"}},
			{"DIABETES_V28", []string{"35", "36", "37", "38"}},
			{"CARD_RESP_FAIL_V28", []string{"211", "212", "213"}},
			{"HF_V28", []string{"221", "222", "223", "224", "225", "226"}},
			{"CHR_LUNG_V28", []string{"276", "277", "278", "279", "280"}},
			{"KIDNEY_V28", []string{"326", "327", "328", "329"}},
			{"SEPSIS_V28", []string{"2"}},
			{"gSubUseDisorder_V28", []string{"135", "136", "137", "138", "139"}},
			{"gPsychiatric_V28", []string{"151", "152", "153", "154", "155"}},
			{"NEURO_V28", []string{"180", "181", "182", "190", "191", "192", "195", "196", "198", "199"}},
			{"ULCER_V28", []string{"379", "380", "381", "382"}},
		},
		terms: []term{
			t("DIABETES_HF_V28", grp("DIABETES_V28"), grp("HF_V28")),
			t("HF_CHR_LUNG_V28", grp("HF_V28"), grp("CHR_LUNG_V28")),
			t("HF_KIDNEY_V28", grp("HF_V28"), grp("KIDNEY_V28")),
			t("CHR_LUNG_CARD_RESP_FAIL_V28", grp("CHR_LUNG_V28"), grp("CARD_RESP_FAIL_V28")),
			t("gSubUseDisorder_gPsych_V28", grp("gSubUseDisorder_V28"), grp("gPsychiatric_V28")),
			t("DISABLED_CANCER_V28", disabled, grp("CANCER_V28")),
			t("DISABLED_NEURO_V28", disabled, grp("NEURO_V28")),
			t("DISABLED_HF_V28", disabled, grp("HF_V28")),
			t("DISABLED_CHR_LUNG_V28", disabled, grp("CHR_LUNG_V28")),
			t("DISABLED_ULCER_V28", disabled, grp("ULCER_V28")),
		},
	},

	model.CMSHCCV24: {
		groups: []group{
			{"CANCER", []string{"8", "9", "10", "11", "12"}},
			{"DIABETES", []string{"17", "18", "19"}},
			{"CARD_RESP_FAIL", []string{"82", "83", "84"}},
			{"CHF", []string{"85"}},
			{"gCopdCF", []string{"110", "111", "112"}},
			{"RENAL_V24", []string{"134", "135", "136", "137", "138"}},
			{"SEPSIS", []string{"2"}},
			{"gSubstanceUseDisorder_V24", []string{"54", "55", "56"}},
			{"gPsychiatric_V24", []string{"57", "58", "59", "60"}},
			{"PRESSURE_ULCER", []string{"157", "158", "159"}},
		},
		terms: []term{
			t("HCC47_gCancer", cc("47"), grp("CANCER")),
			t("DIABETES_CHF", grp("DIABETES"), grp("CHF")),
			t("CHF_gCopdCF", grp("CHF"), grp("gCopdCF")),
			t("HCC85_gRenal_V24", grp("CHF"), grp("RENAL_V24")),
			t("gCopdCF_CARD_RESP_FAIL", grp("gCopdCF"), grp("CARD_RESP_FAIL")),
			t("HCC85_HCC96", cc("85"), cc("96")),
			t("gSubstanceAbuse_gPsych", grp("gSubstanceUseDisorder_V24"), grp("gPsychiatric_V24")),
			t("SEPSIS_PRESSURE_ULCER", grp("SEPSIS"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ARTIF_OPENINGS", grp("SEPSIS"), cc("188")),
			t("ART_OPENINGS_PRESS_ULCER", cc("188"), grp("PRESSURE_ULCER")),
			t("gCopdCF_ASP_SPEC_B_PNEUM", grp("gCopdCF"), cc("114")),
			t("ASP_SPEC_B_PNEUM_PRES_ULC", cc("114"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ASP_SPEC_BACT_PNEUM", grp("SEPSIS"), cc("114")),
			t("SCHIZOPHRENIA_gCopdCF", cc("57"), grp("gCopdCF")),
			t("SCHIZOPHRENIA_CHF", cc("57"), grp("CHF")),
			t("SCHIZOPHRENIA_SEIZURES", cc("57"), cc("79")),
			t("DISABLED_HCC85", disabled, cc("85")),
			t("DISABLED_PRESSURE_ULCER", disabled, grp("PRESSURE_ULCER")),
			t("DISABLED_HCC161", disabled, cc("161")),
			t("DISABLED_HCC39", disabled, cc("39")),
			t("DISABLED_HCC77", disabled, cc("77")),
			t("DISABLED_HCC6", disabled, cc("6")),
		},
	},

	model.CMSHCCV22: {
		groups: []group{
			{"CANCER", []string{"8", "9", "10", "11", "12"}},
			{"DIABETES", []string{"17", "18", "19"}},
			{"CARD_RESP_FAIL", []string{"82", "83", "84"}},
			{"CHF", []string{"85"}},
			{"gCopdCF", []string{"110", "111", "112"}},
			{"RENAL", []string{"134", "135", "136", "137"}},
			{"SEPSIS", []string{"2"}},
			{"gSubstanceUseDisorder", []string{"54", "55"}},
			{"gPsychiatric", []string{"57", "58"}},
			{"PRESSURE_ULCER", []string{"157", "158"}},
		},
		terms: []term{
			t("HCC47_gCancer", cc("47"), grp("CANCER")),
			t("HCC85_gDiabetesMellitus", cc("85"), grp("DIABETES")),
			t("HCC85_gCopdCF", cc("85"), grp("gCopdCF")),
			t("HCC85_gRenal", cc("85"), grp("RENAL")),
			t("gRespDepandArre_gCopdCF", grp("CARD_RESP_FAIL"), grp("gCopdCF")),
			t("HCC85_HCC96", cc("85"), cc("96")),
			t("gSubstanceAbuse_gPsychiatric", grp("gSubstanceUseDisorder"), grp("gPsychiatric")),
			t("DIABETES_CHF", grp("DIABETES"), grp("CHF")),
			t("CHF_gCopdCF", grp("CHF"), grp("gCopdCF")),
			t("gCopdCF_CARD_RESP_FAIL", grp("gCopdCF"), grp("CARD_RESP_FAIL")),
			t("SEPSIS_PRESSURE_ULCER", grp("SEPSIS"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ARTIF_OPENINGS", grp("SEPSIS"), cc("188")),
			t("ART_OPENINGS_PRESSURE_ULCER", cc("188"), grp("PRESSURE_ULCER")),
			t("gCopdCF_ASP_SPEC_BACT_PNEUM", grp("gCopdCF"), cc("114")),
			t("ASP_SPEC_BACT_PNEUM_PRES_ULC", cc("114"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ASP_SPEC_BACT_PNEUM", grp("SEPSIS"), cc("114")),
			t("SCHIZOPHRENIA_gCopdCF", cc("57"), grp("gCopdCF")),
			t("SCHIZOPHRENIA_CHF", cc("57"), grp("CHF")),
			t("SCHIZOPHRENIA_SEIZURES", cc("57"), cc("79")),
			t("DISABLED_HCC85", disabled, cc("85")),
			t("DISABLED_PRESSURE_ULCER", disabled, grp("PRESSURE_ULCER")),
			t("DISABLED_HCC161", disabled, cc("161")),
			t("DISABLED_HCC39", disabled, cc("39")),
			t("DISABLED_HCC77", disabled, cc("77")),
			t("DISABLED_HCC6", disabled, cc("6")),
		},
	},

	model.ESRDV24: {
		rules: []hierarchyRule{
			{remove: []string{"134", "135", "136", "137"}},
		},
		groups: []group{
			{"CANCER", []string{"8", "9", "10", "11", "12"}},
			{"DIABETES", []string{"17", "18", "19"}},
			{"CARD_RESP_FAIL", []string{"82", "83", "84"}},
			{"CHF", []string{"85"}},
			{"gCopdCF", []string{"110", "111", "112"}},
			{"RENAL_V24", []string{"134", "135", "136", "137", "138"}},
			{"SEPSIS", []string{"2"}},
			{"PRESSURE_ULCER", []string{"157", "158", "159", "160"}},
			{"gSubstanceUseDisorder_V24", []string{"54", "55", "56"}},
			{"gPsychiatric_V24", []string{"57", "58", "59", "60"}},
		},
		terms: []term{
			t("HCC47_gCancer", cc("47"), grp("CANCER")),
			t("DIABETES_CHF", grp("DIABETES"), grp("CHF")),
			t("CHF_gCopdCF", grp("CHF"), grp("gCopdCF")),
			t("HCC85_gRenal_V24", cc("85"), grp("RENAL_V24")),
			t("gCopdCF_CARD_RESP_FAIL", grp("gCopdCF"), grp("CARD_RESP_FAIL")),
			t("HCC85_HCC96", cc("85"), cc("96")),
			t("gSubUseDs_gPsych_V24", grp("gSubstanceUseDisorder_V24"), grp("gPsychiatric_V24")),
			t("NONAGED_gSubUseDs_gPsych", nonAged, grp("gSubstanceUseDisorder_V24"), grp("gPsychiatric_V24")),
			t("NONAGED_HCC6", nonAged, cc("6")),
			t("NONAGED_HCC34", nonAged, cc("34")),
			t("NONAGED_HCC46", nonAged, cc("46")),
			t("NONAGED_HCC110", nonAged, cc("110")),
			t("NONAGED_HCC176", nonAged, cc("176")),
			t("SEPSIS_PRESSURE_ULCER_V24", grp("SEPSIS"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ARTIF_OPENINGS", grp("SEPSIS"), cc("188")),
			t("ART_OPENINGS_PRESS_ULCER_V24", cc("188"), grp("PRESSURE_ULCER")),
			t("gCopdCF_ASP_SPEC_B_PNEUM", grp("gCopdCF"), cc("114")),
			t("ASP_SPEC_B_PNEUM_PRES_ULC_V24", cc("114"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ASP_SPEC_BACT_PNEUM", grp("SEPSIS"), cc("114")),
			t("SCHIZOPHRENIA_gCopdCF", cc("57"), grp("gCopdCF")),
			t("SCHIZOPHRENIA_CHF", cc("57"), grp("CHF")),
			t("SCHIZOPHRENIA_SEIZURES", cc("57"), cc("79")),
			t("NONAGED_HCC85", nonAged, cc("85")),
			t("NONAGED_PRESSURE_ULCER_V24", nonAged, grp("PRESSURE_ULCER")),
			t("NONAGED_HCC161", nonAged, cc("161")),
			t("NONAGED_HCC39", nonAged, cc("39")),
			t("NONAGED_HCC77", nonAged, cc("77")),
		},
	},

	model.ESRDV21: {
		rules: []hierarchyRule{
			{remove: []string{"134"}},
		},
		groups: []group{
			{"CANCER", []string{"8", "9", "10", "11", "12"}},
			{"DIABETES", []string{"17", "18", "19"}},
			{"IMMUNE", []string{"47"}},
			{"CARD_RESP_FAIL", []string{"82", "83", "84"}},
			{"CHF", []string{"85"}},
			{"COPD", []string{"110", "111"}},
			{"RENAL", []string{"134", "135", "136", "137", "138", "139", "140", "141"}},
			{"COMPL", []string{"176"}},
			{"SEPSIS", []string{"2"}},
			{"PRESSURE_ULCER", []string{"157", "158", "159", "160"}},
		},
		terms: []term{
			t("SEPSIS_CARD_RESP_FAIL", grp("SEPSIS"), grp("CARD_RESP_FAIL")),
			t("CANCER_IMMUNE", grp("CANCER"), grp("IMMUNE")),
			t("DIABETES_CHF", grp("DIABETES"), grp("CHF")),
			t("CHF_COPD", grp("CHF"), grp("COPD")),
			t("CHF_RENAL", grp("CHF"), grp("RENAL")),
			t("COPD_CARD_RESP_FAIL", grp("COPD"), grp("CARD_RESP_FAIL")),
			t("NONAGED_HCC6", nonAged, cc("6")),
			t("NONAGED_HCC34", nonAged, cc("34")),
			t("NONAGED_HCC46", nonAged, cc("46")),
			t("NONAGED_HCC54", nonAged, cc("54")),
			t("NONAGED_HCC55", nonAged, cc("55")),
			t("NONAGED_HCC110", nonAged, cc("110")),
			t("NONAGED_HCC176", nonAged, cc("176")),
			t("SEPSIS_PRESSURE_ULCER", grp("SEPSIS"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ARTIF_OPENINGS", grp("SEPSIS"), cc("188")),
			t("ART_OPENINGS_PRESSURE_ULCER", cc("188"), grp("PRESSURE_ULCER")),
			t("COPD_ASP_SPEC_BACT_PNEUM", grp("COPD"), cc("114")),
			t("ASP_SPEC_BACT_PNEUM_PRES_ULC", cc("114"), grp("PRESSURE_ULCER")),
			t("SEPSIS_ASP_SPEC_BACT_PNEUM", grp("SEPSIS"), cc("114")),
			t("SCHIZOPHRENIA_COPD", cc("57"), grp("COPD")),
			t("SCHIZOPHRENIA_CHF", cc("57"), grp("CHF")),
			t("SCHIZOPHRENIA_SEIZURES", cc("57"), cc("79")),
			t("NONAGED_HCC85", nonAged, cc("85")),
			t("NONAGED_PRESSURE_ULCER", nonAged, grp("PRESSURE_ULCER")),
			t("NONAGED_HCC161", nonAged, cc("161")),
			t("NONAGED_HCC39", nonAged, cc("39")),
			t("NONAGED_HCC77", nonAged, cc("77")),
		},
	},

	model.RxHCCV08: {
		terms: []term{
			t("NonAged_RXHCC1", nonAged, cc("1")),
			t("NonAged_RXHCC130", nonAged, cc("130")),
			t("NonAged_RXHCC131", nonAged, cc("131")),
			t("NonAged_RXHCC132", nonAged, cc("132")),
			t("NonAged_RXHCC133", nonAged, cc("133")),
			t("NonAged_RXHCC159", nonAged, cc("159")),
			t("NonAged_RXHCC163", nonAged, cc("163")),
		},
	},
}
