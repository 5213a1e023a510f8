package extract

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gyeh/rafscore/internal/model"
)

const sampleEOB = `{
  "resourceType": "ExplanationOfBenefit",
  "id": "eob-1",
  "type": {
    "coding": [{"system": "https://bluebutton.cms.gov/resources/variables/nch_clm_type_cd", "code": "71"}],
    "extension": [{"url": "https://bluebutton.cms.gov/resources/variables/clm_srvc_clsfctn_type_cd", "valueCoding": {"code": "1"}}]
  },
  "patient": {"reference": "Patient/pat-42"},
  "billablePeriod": {"start": "2024-01-05", "end": "2024-01-07"},
  "facility": {"extension": [{"url": "https://bluebutton.cms.gov/resources/variables/clm_fac_type_cd", "valueCoding": {"code": "1"}}]},
  "contained": [{"resourceType": "Organization", "identifier": [{"system": "http://hl7.org/fhir/sid/us-npi", "value": "9999999999"}]}],
  "careTeam": [
    {"sequence": 1,
     "provider": {"identifier": {"system": "http://hl7.org/fhir/sid/us-npi", "value": "1234567890"}},
     "role": {"coding": [{"system": "http://hl7.org/fhir/us/carin-bb/CodeSystem/C4BBClaimCareTeamRole", "code": "performing"}]},
     "qualification": {"coding": [{"system": "https://bluebutton.cms.gov/resources/variables/prvdr_spclty", "code": "11"}]}}
  ],
  "diagnosis": [
    {"sequence": 1, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "E119"}]}},
    {"sequence": 2, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10", "code": "I10"}]}},
    {"sequence": 3, "diagnosisCodeableConcept": {"coding": [{"system": "http://example.org/other", "code": "XYZ"}]}}
  ],
  "item": [
    {"sequence": 1,
     "productOrService": {"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "99213"}]},
     "modifier": [{"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "25"}]}],
     "quantity": {"value": 2},
     "diagnosisSequence": [1, 9],
     "servicedPeriod": {"start": "2024-01-06"},
     "locationCodeableConcept": {"coding": [{"system": "https://bluebutton.cms.gov/resources/variables/line_place_of_srvc_cd", "code": "11"}]},
     "adjudication": [
       {"category": {"coding": [{"code": "submitted"}]}, "amount": {"value": 200}},
       {"category": {"coding": [{"code": "eligible"}]}, "amount": {"value": 120.5}}
     ]},
    {"sequence": 2,
     "service": {"coding": [{"system": "http://hl7.org/fhir/sid/ndc", "code": "00002-8215-01"}]},
     "diagnosisSequence": [2]},
    {"sequence": 3,
     "productOrService": {"coding": [{"system": "http://example.org/revenue", "code": "0450"}]}}
  ]
}`

func TestParseFHIR(t *testing.T) {
	recs, err := ParseFHIR([]byte(sampleEOB))
	if err != nil {
		t.Fatalf("ParseFHIR: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	first := recs[0]
	checks := map[string][2]string{
		"claim_id":      {model.Deref(first.ClaimID), "eob-1"},
		"claim_type":    {model.Deref(first.ClaimType), "71"},
		"procedure":     {model.Deref(first.ProcedureCode), "99213"},
		"patient":       {model.Deref(first.PatientID), "pat-42"},
		"specialty":     {model.Deref(first.ProviderSpecialty), "11"},
		"performing":    {model.Deref(first.PerformingProviderNPI), "1234567890"},
		"billing":       {model.Deref(first.BillingProviderNPI), "9999999999"},
		"facility_type": {model.Deref(first.FacilityType), "1"},
		"service_type":  {model.Deref(first.ServiceType), "1"},
		"pos":           {model.Deref(first.PlaceOfService), "11"},
		"service_date":  {first.ServiceDate.String(), "2024-01-06"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if !reflect.DeepEqual(first.ClaimDiagnosisCodes, []string{"E119", "I10"}) {
		t.Errorf("claim dx = %v", first.ClaimDiagnosisCodes)
	}
	if !reflect.DeepEqual(first.LinkedDiagnosisCodes, []string{"E119"}) {
		t.Errorf("linked dx = %v", first.LinkedDiagnosisCodes)
	}
	if !reflect.DeepEqual(first.Modifiers, []string{"25"}) {
		t.Errorf("modifiers = %v", first.Modifiers)
	}
	if first.Quantity == nil || *first.Quantity != 2 {
		t.Errorf("quantity = %v", first.Quantity)
	}
	if first.AllowedAmount == nil || *first.AllowedAmount != 120.5 {
		t.Errorf("allowed amount = %v", first.AllowedAmount)
	}

	second := recs[1]
	if second.ProcedureCode != nil || model.Deref(second.NDC) != "00002-8215-01" {
		t.Errorf("second record procedure=%v ndc=%v", second.ProcedureCode, second.NDC)
	}
	if second.ServiceDate == nil || second.ServiceDate.String() != "2024-01-07" {
		t.Errorf("second record should fall back to billable period end, got %v", second.ServiceDate)
	}

	for i, r := range recs {
		if !r.LinkedSubsetOfClaim() {
			t.Errorf("record %d linked dx not a subset of claim dx", i)
		}
	}
}

func TestParseFHIRHeaderOnly(t *testing.T) {
	doc := `{
	  "resourceType": "ExplanationOfBenefit",
	  "id": "eob-2",
	  "billablePeriod": {"start": "2024-03-01"},
	  "diagnosis": [
	    {"sequence": 1, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "E1165"}]}},
	    {"sequence": 2, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "N184"}]}}
	  ],
	  "item": [
	    {"sequence": 1, "productOrService": {"coding": [{"system": "http://example.org/revenue", "code": "0450"}]}, "diagnosisSequence": [1]}
	  ]
	}`
	recs, err := ParseFHIR([]byte(doc))
	if err != nil {
		t.Fatalf("ParseFHIR: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want exactly 1", len(recs))
	}
	r := recs[0]
	if !r.HeaderOnly() {
		t.Error("expected a claim-header-only record")
	}
	if !reflect.DeepEqual(r.ClaimDiagnosisCodes, []string{"E1165", "N184"}) {
		t.Errorf("claim dx = %v", r.ClaimDiagnosisCodes)
	}
	if len(r.LinkedDiagnosisCodes) != 0 {
		t.Errorf("linked dx = %v, want empty", r.LinkedDiagnosisCodes)
	}
	if r.ServiceDate == nil || r.ServiceDate.String() != "2024-03-01" {
		t.Errorf("service date = %v", r.ServiceDate)
	}
}

func TestParseFHIRValidation(t *testing.T) {
	cases := map[string]string{
		"wrong resource type": `{"resourceType": "Patient", "id": "p1"}`,
		"missing resource":    `{"id": "x"}`,
		"not json":            `{"resourceType": `,
		"bad field type":      `{"resourceType": "ExplanationOfBenefit", "item": "nope"}`,
		"diagnosis no seq":    `{"resourceType": "ExplanationOfBenefit", "diagnosis": [{"diagnosisCodeableConcept": {}}]}`,
		"bad billable start":  `{"resourceType": "ExplanationOfBenefit", "billablePeriod": {"start": "2024-13-45"}}`,
		"bad billable end":    `{"resourceType": "ExplanationOfBenefit", "billablePeriod": {"start": "2024-01-01", "end": "soon"}}`,
		"bad serviced period": `{"resourceType": "ExplanationOfBenefit", "item": [{"sequence": 1,
			"productOrService": {"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "99213"}]},
			"servicedPeriod": {"start": "01/06/2024"}}]}`,
		"bad serviced date": `{"resourceType": "ExplanationOfBenefit", "item": [{"sequence": 1,
			"productOrService": {"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "99213"}]},
			"servicedDate": "2024-02-30"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFHIR([]byte(doc))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Format != FormatFHIR {
				t.Errorf("format = %s", verr.Format)
			}
		})
	}
}

func TestParseFHIRBlankDatesFallBack(t *testing.T) {
	doc := `{"resourceType": "ExplanationOfBenefit", "id": "c9",
	  "billablePeriod": {"start": "2024-04-02", "end": ""},
	  "item": [{"sequence": 1,
	    "productOrService": {"coding": [{"system": "https://bluebutton.cms.gov/resources/codesystem/hcpcs", "code": "99214"}]},
	    "servicedPeriod": {"start": " "}}]}`
	recs, err := ParseFHIR([]byte(doc))
	if err != nil {
		t.Fatalf("ParseFHIR: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].ServiceDate == nil || recs[0].ServiceDate.String() != "2024-04-02" {
		t.Errorf("service date = %v, want 2024-04-02", recs[0].ServiceDate)
	}
}

func TestCodeFor(t *testing.T) {
	codings := []Coding{
		{System: SystemICD10, Code: "I10"},
		{System: SystemICD10CM, Code: ""},
		{System: SystemICD10CM, Code: "E119"},
	}
	if got := CodeFor(codings, SystemICD10CM, SystemICD10); got != "E119" {
		t.Errorf("preferred system: got %q", got)
	}
	if got := CodeFor(codings, "http://nowhere", SystemICD10); got != "I10" {
		t.Errorf("fallback system: got %q", got)
	}
	if got := CodeFor(nil, SystemICD10); got != "" {
		t.Errorf("empty codings: got %q", got)
	}
}
