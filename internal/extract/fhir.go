package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

// ParseFHIR turns one ExplanationOfBenefit JSON document into service-level
// records, one per line item that carries a procedure or drug code. A claim
// with no qualifying line yields a single claim-header-only record so its
// diagnoses still reach the risk engine.
func ParseFHIR(data []byte) ([]model.ServiceLevelRecord, error) {
	var eob ExplanationOfBenefit
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&eob); err != nil {
		return nil, invalid(FormatFHIR, "decode ExplanationOfBenefit", err)
	}
	return ExtractEOB(&eob)
}

// ExtractEOB is ParseFHIR for an already-decoded resource.
func ExtractEOB(eob *ExplanationOfBenefit) ([]model.ServiceLevelRecord, error) {
	if eob.ResourceType != resourceTypeEOB {
		return nil, invalid(FormatFHIR, fmt.Sprintf("resourceType %q, want %s", eob.ResourceType, resourceTypeEOB), nil)
	}
	dx, err := diagnosisLookup(eob)
	if err != nil {
		return nil, err
	}

	billable, err := eob.BillablePeriod.ServiceDate("billablePeriod")
	if err != nil {
		return nil, err
	}

	header := claimHeader(eob)
	header.ClaimDiagnosisCodes = dx.codes()

	var records []model.ServiceLevelRecord
	for i := range eob.Item {
		item := &eob.Item[i]
		concept := item.concept()
		if concept == nil {
			continue
		}
		rec := header
		rec.ClaimDiagnosisCodes = dx.codes()
		rec.ProcedureCode = model.Str(concept.Code(SystemHCPCS))
		ndc := concept.Code(SystemNDC)
		if ndc == "" {
			ndc = concept.ExtensionCode(SystemNDC)
		}
		rec.NDC = model.Str(ndc)
		if rec.ProcedureCode == nil && rec.NDC == nil {
			continue
		}

		if item.Quantity != nil {
			rec.Quantity = item.Quantity.Value
			rec.QuantityUnit = model.Str(item.Quantity.Unit)
		}
		rec.LinkedDiagnosisCodes = dx.resolve(item.DiagnosisSequence)
		if rec.ServiceDate, err = itemServiceDate(i, item, billable); err != nil {
			return nil, err
		}
		rec.PlaceOfService = model.Str(item.LocationCodeableConcept.Code(SystemPlace))
		rec.Modifiers = modifierCodes(item.Modifier)
		rec.AllowedAmount = eligibleAmount(item.Adjudication)
		records = append(records, rec)
	}

	if len(records) == 0 {
		rec := header
		rec.LinkedDiagnosisCodes = []string{}
		rec.Modifiers = []string{}
		rec.ServiceDate = billable
		records = append(records, rec)
	}
	return records, nil
}

// claimHeader collects the fields repeated on every record of the claim.
func claimHeader(eob *ExplanationOfBenefit) model.ServiceLevelRecord {
	rec := model.ServiceLevelRecord{
		ClaimID:            model.Str(eob.ID),
		ClaimType:          model.Str(eob.Type.Code(SystemClaimType)),
		BillingProviderNPI: billingNPI(eob.Contained),
	}
	if m := renderingProvider(eob.CareTeam); m != nil {
		rec.ProviderSpecialty = model.Str(m.Qualification.Code(SystemSpecialty))
		if m.Provider != nil && m.Provider.Identifier != nil {
			rec.PerformingProviderNPI = model.Str(m.Provider.Identifier.Value)
		}
	}
	if eob.Patient != nil && eob.Patient.Reference != "" {
		ref := eob.Patient.Reference
		rec.PatientID = model.Str(ref[strings.LastIndex(ref, "/")+1:])
	}
	if eob.Facility != nil {
		rec.FacilityType = model.Str(extensionCode(eob.Facility.Extension, SystemFacility))
	}
	if eob.Type != nil {
		st := eob.Type.ExtensionCode(SystemServiceType)
		if st == "" {
			st = eob.Type.Code(SystemServiceType)
		}
		rec.ServiceType = model.Str(st)
	}
	return rec
}

// dxLookup maps diagnosis sequence numbers to codes, keeping claim order.
type dxLookup struct {
	order []int
	bySeq map[int]string
}

func diagnosisLookup(eob *ExplanationOfBenefit) (*dxLookup, error) {
	l := &dxLookup{bySeq: make(map[int]string)}
	for i, d := range eob.Diagnosis {
		if d.Sequence == nil {
			return nil, invalid(FormatFHIR, fmt.Sprintf("diagnosis[%d] has no sequence", i), nil)
		}
		code := d.DiagnosisCodeableConcept.Code(SystemICD10CM, SystemICD10)
		if code == "" {
			continue
		}
		if _, seen := l.bySeq[*d.Sequence]; !seen {
			l.order = append(l.order, *d.Sequence)
		}
		l.bySeq[*d.Sequence] = code
	}
	return l, nil
}

func (l *dxLookup) codes() []string {
	out := make([]string, 0, len(l.order))
	for _, seq := range l.order {
		out = append(out, l.bySeq[seq])
	}
	return out
}

// resolve maps line diagnosis pointers to codes. Unknown sequences are dropped.
func (l *dxLookup) resolve(seqs []int) []string {
	out := make([]string, 0, len(seqs))
	for _, seq := range seqs {
		if code, ok := l.bySeq[seq]; ok {
			out = append(out, code)
		}
	}
	return out
}

func renderingProvider(team []CareTeamMember) *CareTeamMember {
	for i := range team {
		switch team[i].Role.Code(SystemCareTeamRole) {
		case "performing", "rendering":
			return &team[i]
		}
	}
	return nil
}

func billingNPI(contained []ContainedResource) *string {
	for _, c := range contained {
		for _, id := range c.Identifier {
			if id.System == SystemNPI {
				return model.Str(id.Value)
			}
		}
	}
	return nil
}

// itemServiceDate falls back from servicedPeriod to servicedDate to the
// claim's billablePeriod.
func itemServiceDate(i int, item *Item, billable *model.Date) (*model.Date, error) {
	prefix := fmt.Sprintf("item[%d].", i)
	d, err := item.ServicedPeriod.ServiceDate(prefix + "servicedPeriod")
	if err != nil || d != nil {
		return d, err
	}
	d, err = parseFHIRDate(prefix+"servicedDate", item.ServicedDate)
	if err != nil || d != nil {
		return d, err
	}
	return billable, nil
}

func modifierCodes(mods []CodeableConcept) []string {
	out := make([]string, 0, len(mods))
	for i := range mods {
		if code := mods[i].Code(SystemHCPCS); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// eligibleAmount returns the first adjudication amount categorized as "eligible".
func eligibleAmount(adj []Adjudication) *float64 {
	for _, a := range adj {
		if a.Category == nil {
			continue
		}
		for _, c := range a.Category.Coding {
			if c.Code == "eligible" {
				if a.Amount == nil {
					return nil
				}
				return a.Amount.Value
			}
		}
	}
	return nil
}

// parseFHIRDate returns nil for an absent date and a ValidationError for one
// that is present but unparseable.
func parseFHIRDate(field, s string) (*model.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d := normalize.ParseDate(s)
	if d == nil {
		return nil, invalid(FormatFHIR, fmt.Sprintf("%s %q is not a date", field, s), nil)
	}
	return d, nil
}
