package extract

import "github.com/gyeh/rafscore/internal/model"

// Code systems read from ExplanationOfBenefit resources.
const (
	SystemICD10CM      = "http://hl7.org/fhir/sid/icd-10-cm"
	SystemICD10        = "http://hl7.org/fhir/sid/icd-10"
	SystemHCPCS        = "https://bluebutton.cms.gov/resources/codesystem/hcpcs"
	SystemNPI          = "http://hl7.org/fhir/sid/us-npi"
	SystemNDC          = "http://hl7.org/fhir/sid/ndc"
	SystemSpecialty    = "https://bluebutton.cms.gov/resources/variables/prvdr_spclty"
	SystemCareTeamRole = "http://hl7.org/fhir/us/carin-bb/CodeSystem/C4BBClaimCareTeamRole"
	SystemClaimType    = "https://bluebutton.cms.gov/resources/variables/nch_clm_type_cd"
	SystemFacility     = "https://bluebutton.cms.gov/resources/variables/clm_fac_type_cd"
	SystemServiceType  = "https://bluebutton.cms.gov/resources/variables/clm_srvc_clsfctn_type_cd"
	SystemPlace        = "https://bluebutton.cms.gov/resources/variables/line_place_of_srvc_cd"
)

const resourceTypeEOB = "ExplanationOfBenefit"

type Extension struct {
	URL         string  `json:"url"`
	ValueCoding *Coding `json:"valueCoding,omitempty"`
}

// extensionCode returns the valueCoding code of the first extension with the given URL.
func extensionCode(exts []Extension, url string) string {
	for _, ext := range exts {
		if ext.URL == url && ext.ValueCoding != nil {
			return ext.ValueCoding.Code
		}
	}
	return ""
}

type CodeableConcept struct {
	Coding    []Coding    `json:"coding,omitempty"`
	Extension []Extension `json:"extension,omitempty"`
}

// Code returns the code for system, or "" when the concept is nil.
func (c *CodeableConcept) Code(systems ...string) string {
	if c == nil {
		return ""
	}
	return CodeFor(c.Coding, systems...)
}

func (c *CodeableConcept) ExtensionCode(url string) string {
	if c == nil {
		return ""
	}
	return extensionCode(c.Extension, url)
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ServiceDate prefers the end of the period, then its start. A bound that is
// present but not a date is an error.
func (p *Period) ServiceDate(field string) (*model.Date, error) {
	if p == nil {
		return nil, nil
	}
	end, err := parseFHIRDate(field+".end", p.End)
	if err != nil {
		return nil, err
	}
	start, err := parseFHIRDate(field+".start", p.Start)
	if err != nil {
		return nil, err
	}
	if end != nil {
		return end, nil
	}
	return start, nil
}

type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type Reference struct {
	Reference  string      `json:"reference,omitempty"`
	Identifier *Identifier `json:"identifier,omitempty"`
}

type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
	Code  string   `json:"code,omitempty"`
}

type Money struct {
	Value    *float64 `json:"value,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

type Adjudication struct {
	Category *CodeableConcept `json:"category,omitempty"`
	Amount   *Money           `json:"amount,omitempty"`
}

type Diagnosis struct {
	Sequence                 *int             `json:"sequence"`
	DiagnosisCodeableConcept *CodeableConcept `json:"diagnosisCodeableConcept"`
}

type CareTeamMember struct {
	Sequence      int              `json:"sequence,omitempty"`
	Provider      *Reference       `json:"provider,omitempty"`
	Role          *CodeableConcept `json:"role,omitempty"`
	Qualification *CodeableConcept `json:"qualification,omitempty"`
}

// Item is one EOB line. Older resources name the concept "service"
// instead of "productOrService".
type Item struct {
	Sequence                int               `json:"sequence,omitempty"`
	ProductOrService        *CodeableConcept  `json:"productOrService,omitempty"`
	Service                 *CodeableConcept  `json:"service,omitempty"`
	Modifier                []CodeableConcept `json:"modifier,omitempty"`
	Quantity                *Quantity         `json:"quantity,omitempty"`
	DiagnosisSequence       []int             `json:"diagnosisSequence,omitempty"`
	ServicedPeriod          *Period           `json:"servicedPeriod,omitempty"`
	ServicedDate            string            `json:"servicedDate,omitempty"`
	LocationCodeableConcept *CodeableConcept  `json:"locationCodeableConcept,omitempty"`
	Adjudication            []Adjudication    `json:"adjudication,omitempty"`
}

func (it *Item) concept() *CodeableConcept {
	if it.ProductOrService != nil {
		return it.ProductOrService
	}
	return it.Service
}

type Facility struct {
	Extension []Extension `json:"extension,omitempty"`
}

type ContainedResource struct {
	ResourceType string       `json:"resourceType,omitempty"`
	ID           string       `json:"id,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
}

// ExplanationOfBenefit holds the subset of the FHIR resource used for
// risk adjustment. Unknown fields are ignored.
type ExplanationOfBenefit struct {
	ResourceType   string              `json:"resourceType"`
	ID             string              `json:"id,omitempty"`
	Type           *CodeableConcept    `json:"type,omitempty"`
	Patient        *Reference          `json:"patient,omitempty"`
	BillablePeriod *Period             `json:"billablePeriod,omitempty"`
	Facility       *Facility           `json:"facility,omitempty"`
	CareTeam       []CareTeamMember    `json:"careTeam,omitempty"`
	Diagnosis      []Diagnosis         `json:"diagnosis,omitempty"`
	Item           []Item              `json:"item,omitempty"`
	Contained      []ContainedResource `json:"contained,omitempty"`
	Extension      []Extension         `json:"extension,omitempty"`
}
