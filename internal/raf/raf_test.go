package raf

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/extract"
	"github.com/gyeh/rafscore/internal/hcc"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/refdata"
)

const m = model.CMSHCCV24

func testData() *refdata.ReferenceData {
	rd := refdata.New()
	rd.DxToCC[refdata.Key{Code: "E119", Model: m}] = []string{"19"}
	rd.DxToCC[refdata.Key{Code: "E1165", Model: m}] = []string{"18"}
	rd.DxToCC[refdata.Key{Code: "I5020", Model: m}] = []string{"85"}
	rd.DxToCC[refdata.Key{Code: "J449", Model: m}] = []string{"111"}
	rd.Hierarchies[refdata.Key{Code: "18", Model: m}] = []string{"19"}
	for k, v := range map[string]float64{
		"cna_f70_74":       0.396,
		"cna_hcc18":        0.302,
		"cna_hcc19":        0.105,
		"cna_hcc85":        0.331,
		"cna_hcc111":       0.335,
		"cna_chf_gcopdcf":  0.155,
		"cna_diabetes_chf": 0.121,
	} {
		rd.Coefficients[refdata.Key{Code: k, Model: m}] = v
	}
	rd.Chronic[refdata.Key{Code: "85", Model: m}] = true
	rd.Chronic[refdata.Key{Code: "18", Model: m}] = true
	rd.EligibleProcedures["99213"] = struct{}{}
	return rd
}

var aged = model.DemographicsInput{Age: 70, Sex: "F", DualElgblCd: "00", OREC: "0"}

func newCalc(t *testing.T, filterClaims bool) *Calculator {
	t.Helper()
	c, err := New(testData(), Options{Model: m, FilterClaims: filterClaims, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestEmptyClaimsScoreDemographicsOnly(t *testing.T) {
	c := newCalc(t, false)
	res, _, err := c.FromClaims(context.Background(), nil, aged)
	if err != nil {
		t.Fatalf("FromClaims: %v", err)
	}
	if res.RiskScore != 0.396 {
		t.Errorf("risk score = %v, want exactly 0.396", res.RiskScore)
	}
	if res.RiskScoreDemographics != 0.396 || res.RiskScoreHCC != 0 {
		t.Errorf("demographics=%v hcc=%v", res.RiskScoreDemographics, res.RiskScoreHCC)
	}
	if len(res.HCCList) != 0 {
		t.Errorf("hcc list = %v", res.HCCList)
	}
	if res.Demographics.Category != "F70_74" {
		t.Errorf("category = %s", res.Demographics.Category)
	}
}

func TestFromDiagnosis(t *testing.T) {
	c := newCalc(t, false)
	res, err := c.FromDiagnosis([]string{"E11.65", "E119", "I50.20", "J449", "Z0000"}, aged)
	if err != nil {
		t.Fatalf("FromDiagnosis: %v", err)
	}
	if !reflect.DeepEqual(res.HCCList, []string{"18", "85", "111"}) {
		t.Errorf("hcc list = %v", res.HCCList)
	}
	if !reflect.DeepEqual(res.CCToDx["19"], []string{"E119"}) {
		t.Errorf("cc_to_dx keeps pre-hierarchy categories, got %v", res.CCToDx)
	}
	want := 0.396 + 0.302 + 0.331 + 0.335 + 0.155 + 0.121
	if math.Abs(res.RiskScore-want) > 1e-9 {
		t.Errorf("risk score = %v, want %v", res.RiskScore, want)
	}
	if math.Abs(res.RiskScoreDemographics-0.396) > 1e-9 {
		t.Errorf("demographics score = %v", res.RiskScoreDemographics)
	}
	if math.Abs(res.RiskScoreHCC-(want-0.396)) > 1e-9 {
		t.Errorf("hcc score = %v", res.RiskScoreHCC)
	}
	// Chronic categories 18 and 85 only, without disease interactions.
	if math.Abs(res.RiskScoreChronicOnly-(0.302+0.331)) > 1e-9 {
		t.Errorf("chronic score = %v", res.RiskScoreChronicOnly)
	}
	if res.Version != "V2" || res.ModelName != m {
		t.Errorf("model = %s %s", res.ModelName, res.Version)
	}
}

func TestFromDiagnosisRejectsEmpty(t *testing.T) {
	c := newCalc(t, false)
	_, err := c.FromDiagnosis(nil, aged)
	var ierr *InputError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *InputError, got %v", err)
	}
}

func TestFromDiagnosisInvalidDemographics(t *testing.T) {
	c := newCalc(t, false)
	_, err := c.FromDiagnosis([]string{"E119"}, model.DemographicsInput{Age: 70, Sex: "Q", OREC: "0"})
	var verr *hcc.ValidationError
	if !errors.As(err, &verr) || verr.Field != "sex" {
		t.Fatalf("expected sex validation error, got %v", err)
	}
}

func TestFromRecordsValidatesEachRecord(t *testing.T) {
	c := newCalc(t, false)
	records := []model.ServiceLevelRecord{
		{ClaimDiagnosisCodes: []string{"E119"}, LinkedDiagnosisCodes: []string{"E119"}},
		{ClaimDiagnosisCodes: []string{"I5020"}, LinkedDiagnosisCodes: []string{"J449"}},
	}
	_, err := c.FromRecords(records, aged)
	var ierr *InputError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *InputError, got %v", err)
	}
	if ierr.Index != 1 {
		t.Errorf("index = %d, want 1", ierr.Index)
	}
}

func TestFromRecordsFilter(t *testing.T) {
	records := []model.ServiceLevelRecord{
		{ProcedureCode: model.Str("99213"), ClaimDiagnosisCodes: []string{"E119"}},
		{ProcedureCode: model.Str("00000"), ClaimDiagnosisCodes: []string{"I5020"}},
	}

	res, err := newCalc(t, true).FromRecords(records, aged)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if !reflect.DeepEqual(res.HCCList, []string{"19"}) {
		t.Errorf("filtered hcc list = %v", res.HCCList)
	}
	if len(res.ServiceLevelRecords) != 1 {
		t.Errorf("kept %d records", len(res.ServiceLevelRecords))
	}

	res, err = newCalc(t, false).FromRecords(records, aged)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	if !reflect.DeepEqual(res.HCCList, []string{"19", "85"}) {
		t.Errorf("unfiltered hcc list = %v", res.HCCList)
	}
}

const eob = `{
  "resourceType": "ExplanationOfBenefit",
  "id": "eob-9",
  "diagnosis": [
    {"sequence": 1, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "E11.65"}]}}
  ],
  "item": [
    {"sequence": 1,
     "productOrService": {"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "99213"}]},
     "diagnosisSequence": [1],
     "servicedDate": "2024-02-01"}
  ]
}`

func TestFromClaimsSkipsBadDocuments(t *testing.T) {
	c := newCalc(t, true)
	docs := []extract.Document{
		{Format: extract.FormatFHIR, Data: []byte(`{"resourceType": "Claim"}`)},
		{Format: extract.FormatFHIR, Data: []byte(eob)},
	}
	res, skips, err := c.FromClaims(context.Background(), docs, aged)
	if err != nil {
		t.Fatalf("FromClaims: %v", err)
	}
	if len(skips) != 1 || skips[0].Index != 0 {
		t.Errorf("skips = %+v", skips)
	}
	if !reflect.DeepEqual(res.HCCList, []string{"18"}) {
		t.Errorf("hcc list = %v", res.HCCList)
	}
	if !reflect.DeepEqual(res.DiagnosisCodes, []string{"E11.65"}) {
		t.Errorf("diagnosis codes = %v", res.DiagnosisCodes)
	}
}

func TestNewRejectsUnknownModel(t *testing.T) {
	if _, err := New(testData(), Options{Model: "CMS-HCC Model V99"}); err == nil {
		t.Fatal("expected error for unknown model")
	}
	c, err := New(testData(), Options{})
	if err != nil {
		t.Fatalf("New with defaults: %v", err)
	}
	if c.Model() != model.DefaultModel || c.Version() != "V2" {
		t.Errorf("default model = %s %s", c.Model(), c.Version())
	}
	rx, err := New(testData(), Options{Model: model.RxHCCV08})
	if err != nil || rx.Version() != "V4" {
		t.Errorf("RxHCC version = %v, %v", rx, err)
	}
}
