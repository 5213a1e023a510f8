package hcc

import (
	"math"
	"strconv"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
)

var (
	fullBenefitDual    = map[string]bool{"02": true, "04": true, "08": true}
	partialBenefitDual = map[string]bool{"01": true, "03": true, "05": true, "06": true}
	esrdOREC           = map[string]bool{"2": true, "3": true, "6": true}
	esrdCREC           = map[string]bool{"2": true, "3": true}
)

// CategorizeDemographics derives the age/sex category and status flags for
// one beneficiary. version selects the banding ("V2", "V4" or "V6"); ESRD
// models use their own bands regardless of version.
func CategorizeDemographics(in model.DemographicsInput, version string, m model.ModelName) (model.Demographics, error) {
	if math.IsNaN(in.Age) || math.IsInf(in.Age, 0) {
		return model.Demographics{}, &ValidationError{Field: "age", Msg: "must be a number"}
	}
	if in.Age < 0 {
		return model.Demographics{}, &ValidationError{Field: "age", Msg: "must not be negative"}
	}
	age := int(math.Floor(in.Age))

	var female bool
	switch strings.ToUpper(strings.TrimSpace(in.Sex)) {
	case "M", "1":
	case "F", "2":
		female = true
	default:
		return model.Demographics{}, &ValidationError{Field: "sex", Value: in.Sex, Msg: "want M, F, 1 or 2"}
	}

	switch version {
	case "V2", "V4":
		if in.OREC == "" {
			return model.Demographics{}, &ValidationError{Field: "orec", Msg: "required for version " + version}
		}
	case "V6":
	default:
		return model.Demographics{}, &ValidationError{Field: "version", Value: version, Msg: "want V2, V4 or V6"}
	}

	d := model.Demographics{
		Age:         age,
		DualElgblCd: in.DualElgblCd,
		OREC:        in.OREC,
		CREC:        in.CREC,
		NewEnrollee: in.NewEnrollee,
		SNP:         in.SNP,
		LowIncome:   in.LowIncome,
		GraftMonths: in.GraftMonths,
		Version:     version,
		LTI:         in.LTI,
	}
	d.NonAged = age <= 64
	d.Disabled = age < 65 && in.OREC != "" && in.OREC != "0"
	d.OrigDisabled = in.OREC == "1" && !d.Disabled
	d.FBD = fullBenefitDual[in.DualElgblCd]
	d.PBD = partialBenefitDual[in.DualElgblCd]
	d.ESRD = esrdOREC[in.OREC] || esrdCREC[in.CREC]

	switch {
	case version == "V6":
		d.Sex = sexLetter(female)
		d.Category = d.Sex + "AGE_LAST_" + acaBand(age)
	case m.Info().Family == model.FamilyESRD:
		d.Sex = sexDigit(female)
		d.Category = enrolleePrefix(female, in.NewEnrollee) + medicareBand(age)
	case in.NewEnrollee:
		d.Sex = sexDigit(female)
		d.Category = enrolleePrefix(female, true) + newEnrolleeBand(age, in.OREC)
	default:
		d.Sex = sexDigit(female)
		d.Category = enrolleePrefix(female, false) + medicareBand(age)
	}
	return d, nil
}

func sexLetter(female bool) string {
	if female {
		return "F"
	}
	return "M"
}

func sexDigit(female bool) string {
	if female {
		return "2"
	}
	return "1"
}

func enrolleePrefix(female, newEnrollee bool) string {
	p := sexLetter(female)
	if newEnrollee {
		return "NE" + p
	}
	return p
}

type band struct {
	max   int // inclusive upper age
	label string
}

func pick(bands []band, age int, last string) string {
	for _, b := range bands {
		if age <= b.max {
			return b.label
		}
	}
	return last
}

var acaBands = []band{
	{0, "0_0"}, {1, "1_1"}, {4, "2_4"}, {9, "5_9"}, {14, "10_14"}, {20, "15_20"},
	{24, "21_24"}, {29, "25_29"}, {34, "30_34"}, {39, "35_39"}, {44, "40_44"},
	{49, "45_49"}, {54, "50_54"}, {59, "55_59"},
}

func acaBand(age int) string { return pick(acaBands, age, "60_GT") }

// medicareBands serve both continuing enrollees and every ESRD category.
var medicareBands = []band{
	{34, "0_34"}, {44, "35_44"}, {54, "45_54"}, {59, "55_59"}, {64, "60_64"},
	{69, "65_69"}, {74, "70_74"}, {79, "75_79"}, {84, "80_84"}, {89, "85_89"},
	{94, "90_94"},
}

func medicareBand(age int) string { return pick(medicareBands, age, "95_GT") }

// newEnrolleeBand treats age 64 without a disability entitlement as 65:
// the beneficiary is aging in, not disabled.
func newEnrolleeBand(age int, orec string) string {
	switch {
	case age <= 59:
		return pick(medicareBands[:4], age, "")
	case age <= 63, age == 64 && orec != "0":
		return "60_64"
	case age <= 65:
		return "65"
	case age <= 69:
		return strconv.Itoa(age)
	}
	return pick(medicareBands, age, "95_GT")
}
