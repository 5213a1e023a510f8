package extract

import (
	"strconv"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

const (
	segmentTerminator = "~"
	elementSeparator  = "*"
	componentSep      = ":"
)

// Claim type tags assigned to 837 records.
const (
	ClaimTypeProfessional  = "837P"
	ClaimTypeInstitutional = "837I"
)

// ICD-10 diagnosis qualifiers honored in HI composites: principal,
// other, and admitting/patient reason.
var icd10Qualifiers = []string{"ABK", "ABF", "ABJ"}

// minElements is the shortest usable form of each segment, counting the
// segment ID. Shorter segments are skipped.
var minElements = map[string]int{
	"NM1": 2,
	"CLM": 2,
	"HI":  2,
	"SV1": 2,
	"SV2": 3,
	"PRV": 2,
	"DTP": 4,
	"LIN": 4,
	"GS":  9,
}

type segment []string

func (s segment) id() string { return s[0] }

// el returns element n, or "" when the segment is shorter.
func (s segment) el(n int) string {
	if n < len(s) {
		return s[n]
	}
	return ""
}

func splitSegments(content string) []segment {
	var out []segment
	for _, raw := range strings.Split(content, segmentTerminator) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, elementSeparator)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		out = append(out, segment(parts))
	}
	return out
}

// loopTracker follows the subscriber (2000B), claim (2300), provider
// (2310) and service line (2400) loops. Loops are inferred from trigger
// segments rather than HL nesting.
type loopTracker struct {
	subscriber  bool
	claim       bool
	provider    bool
	serviceLine bool
}

func (lt *loopTracker) enter(seg segment) {
	switch seg.id() {
	case "NM1":
		switch seg.el(1) {
		case "IL":
			lt.subscriber = true
			lt.resetClaim()
		case "82", "71":
			lt.provider = true
		}
	case "CLM":
		lt.claim = true
		lt.provider = false
		lt.serviceLine = false
	case "SV1", "SV2":
		lt.serviceLine = true
	}
}

func (lt *loopTracker) exit(seg segment) {
	id := seg.id()
	switch {
	case id == "SE":
		*lt = loopTracker{}
	case lt.serviceLine && (id == "LX" || id == "CLM"):
		lt.serviceLine = false
	case lt.provider && (id == "SV1" || id == "SV2" || id == "CLM"):
		lt.provider = false
	case lt.claim && id == "NM1" && seg.el(1) == "IL":
		lt.resetClaim()
	}
}

func (lt *loopTracker) resetClaim() {
	lt.claim = false
	lt.provider = false
	lt.serviceLine = false
}

// claimState holds identifiers captured so far for the current claim.
type claimState struct {
	patientID    *string
	billingNPI   *string
	claimID      *string
	renderingNPI *string
	specialty    *string
	facilityType *string
	serviceType  *string
	claimPOS     *string
	claimDate    *model.Date
	linesSeen    bool

	// position (1-based) -> ICD-10 code, from the most recent HI segment
	pointers map[string]string
	dxOrder  []string
}

// startClaim clears claim-scoped fields, keeping subscriber and billing data.
func (c *claimState) startClaim() {
	*c = claimState{patientID: c.patientID, billingNPI: c.billingNPI}
}

func (c *claimState) diagnosisCodes() []string {
	out := make([]string, 0, len(c.dxOrder))
	for _, pos := range c.dxOrder {
		out = append(out, c.pointers[pos])
	}
	return out
}

// ParseX12 turns an 837 professional or institutional transaction set into
// service-level records, one per SV1/SV2 service line found inside a claim.
func ParseX12(content string) ([]model.ServiceLevelRecord, error) {
	segments := splitSegments(content)
	if len(segments) == 0 {
		return nil, invalid(FormatX12, "empty input", nil)
	}
	claimType, err := transactionVariant(segments)
	if err != nil {
		return nil, err
	}
	p := &x12Parser{claimType: claimType, segments: segments}
	return p.run(), nil
}

// transactionVariant reads GS08: X222 is professional, X223 institutional.
func transactionVariant(segments []segment) (string, error) {
	for _, seg := range segments {
		if seg.id() != "GS" {
			continue
		}
		if len(seg) < minElements["GS"] {
			return "", invalid(FormatX12, "GS segment has no version identifier", nil)
		}
		version := seg.el(8)
		switch {
		case strings.Contains(version, "X222"):
			return ClaimTypeProfessional, nil
		case strings.Contains(version, "X223"):
			return ClaimTypeInstitutional, nil
		}
		return "", invalid(FormatX12, "unsupported 837 version "+version, nil)
	}
	return "", invalid(FormatX12, "missing GS functional group header", nil)
}

type x12Parser struct {
	claimType string
	segments  []segment
	loops     loopTracker
	claim     claimState
	records   []model.ServiceLevelRecord
}

func (p *x12Parser) institutional() bool {
	return p.claimType == ClaimTypeInstitutional
}

func (p *x12Parser) run() []model.ServiceLevelRecord {
	for i, seg := range p.segments {
		if n, ok := minElements[seg.id()]; ok && len(seg) < n {
			continue
		}
		if len(seg) < 2 {
			continue
		}
		p.loops.enter(seg)
		p.handle(i, seg)
		p.loops.exit(seg)
	}
	return p.records
}

func (p *x12Parser) handle(i int, seg segment) {
	switch seg.id() {
	case "NM1":
		switch seg.el(1) {
		case "IL":
			if p.loops.subscriber {
				p.claim = claimState{billingNPI: p.claim.billingNPI, patientID: model.Str(seg.el(9))}
			}
		case "82", "71":
			if p.loops.provider {
				p.claim.renderingNPI = model.Str(seg.el(9))
			}
		case "85":
			p.claim.billingNPI = model.Str(seg.el(9))
		}
	case "PRV":
		if p.loops.provider && (seg.el(1) == "PE" || seg.el(1) == "AT") {
			p.claim.specialty = model.Str(seg.el(3))
		}
	case "CLM":
		if p.loops.claim {
			p.openClaim(seg)
		}
	case "LX":
		if p.loops.claim {
			p.claim.linesSeen = true
		}
	case "DTP":
		if p.loops.claim && !p.claim.linesSeen && (seg.el(1) == "472" || seg.el(1) == "434") {
			if d := x12Date(seg); d != nil && p.claim.claimDate == nil {
				p.claim.claimDate = d
			}
		}
	case "HI":
		if p.loops.claim {
			p.readDiagnoses(seg)
		}
	case "SV1":
		if p.loops.claim && !p.institutional() {
			p.claim.linesSeen = true
			p.records = append(p.records, p.professionalLine(i, seg))
		}
	case "SV2":
		if p.loops.claim && p.institutional() {
			p.claim.linesSeen = true
			p.records = append(p.records, p.institutionalLine(i, seg))
		}
	case "SE":
		p.claim = claimState{}
	}
}

func (p *x12Parser) openClaim(seg segment) {
	p.claim.startClaim()
	p.claim.claimID = model.Str(seg.el(1))
	facility := strings.Split(seg.el(5), componentSep)[0]
	if p.institutional() {
		if len(facility) >= 1 {
			p.claim.facilityType = model.Str(facility[:1])
		}
		if len(facility) >= 2 {
			p.claim.serviceType = model.Str(facility[1:2])
		}
		return
	}
	p.claim.claimPOS = model.Str(facility)
}

// readDiagnoses replaces the pointer table with the ICD-10 composites of
// an HI segment. Value-code, occurrence-code and condition-code HI segments
// (no ABK/ABF/ABJ composite) are not diagnosis segments: they leave the
// table and the claim's diagnoses untouched.
func (p *x12Parser) readDiagnoses(seg segment) {
	table := make(map[string]string)
	var order []string
	for pos := 1; pos < len(seg); pos++ {
		parts := strings.Split(seg[pos], componentSep)
		if len(parts) < 2 {
			continue
		}
		code := CodeFor([]Coding{{System: parts[0], Code: parts[1]}}, icd10Qualifiers...)
		if code == "" {
			continue
		}
		key := strconv.Itoa(pos)
		table[key] = code
		order = append(order, key)
	}
	if len(order) == 0 {
		return
	}
	p.claim.pointers = table
	p.claim.dxOrder = order
}

// baseRecord carries the claim-level identifiers captured so far.
func (p *x12Parser) baseRecord() model.ServiceLevelRecord {
	return model.ServiceLevelRecord{
		ClaimID:               p.claim.claimID,
		ClaimType:             model.Str(p.claimType),
		ProviderSpecialty:     p.claim.specialty,
		PerformingProviderNPI: p.claim.renderingNPI,
		BillingProviderNPI:    p.claim.billingNPI,
		PatientID:             p.claim.patientID,
		FacilityType:          p.claim.facilityType,
		ServiceType:           p.claim.serviceType,
		ClaimDiagnosisCodes:   p.claim.diagnosisCodes(),
		LinkedDiagnosisCodes:  []string{},
	}
}

// professionalLine handles SV1: composite procedure, charge, unit,
// quantity, place of service, then diagnosis pointers in SV107.
func (p *x12Parser) professionalLine(i int, seg segment) model.ServiceLevelRecord {
	rec := p.baseRecord()
	rec.ProcedureCode, rec.Modifiers = procedureComposite(seg.el(1))
	rec.QuantityUnit = model.Str(seg.el(3))
	rec.Quantity = normalize.ParseAmount(seg.el(4))
	rec.PlaceOfService = model.Str(seg.el(5))
	if rec.PlaceOfService == nil {
		rec.PlaceOfService = p.claim.claimPOS
	}
	rec.LinkedDiagnosisCodes = p.resolvePointers(seg.el(7))
	p.scanLine(i, &rec)
	return rec
}

// institutionalLine handles SV2: revenue code, composite procedure,
// charge, unit, quantity. Institutional lines carry no pointers.
func (p *x12Parser) institutionalLine(i int, seg segment) model.ServiceLevelRecord {
	rec := p.baseRecord()
	rec.ProcedureCode, rec.Modifiers = procedureComposite(seg.el(2))
	rec.QuantityUnit = model.Str(seg.el(4))
	rec.Quantity = normalize.ParseAmount(seg.el(5))
	p.scanLine(i, &rec)
	return rec
}

// scanLine looks ahead to the next loop boundary for the line's NDC
// (LIN*N4) and service date (DTP*472), falling back to the claim date.
func (p *x12Parser) scanLine(i int, rec *model.ServiceLevelRecord) {
scan:
	for _, seg := range p.segments[i+1:] {
		switch seg.id() {
		case "LX", "CLM", "SE", "HL":
			break scan
		case "LIN":
			if len(seg) >= minElements["LIN"] && seg.el(2) == "N4" {
				rec.NDC = model.Str(seg.el(3))
			}
		case "DTP":
			if len(seg) >= minElements["DTP"] && seg.el(1) == "472" {
				rec.ServiceDate = x12Date(seg)
			}
		}
	}
	if rec.ServiceDate == nil {
		rec.ServiceDate = p.claim.claimDate
	}
}

func (p *x12Parser) resolvePointers(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	for _, ptr := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ':' }) {
		if code, ok := p.claim.pointers[strings.TrimSpace(ptr)]; ok {
			out = append(out, code)
		}
	}
	return out
}

// procedureComposite splits "HC:99213:25:59" into the code and its modifiers.
func procedureComposite(composite string) (*string, []string) {
	parts := strings.Split(composite, componentSep)
	mods := []string{}
	if len(parts) < 2 {
		return nil, mods
	}
	for _, m := range parts[2:] {
		if m != "" {
			mods = append(mods, m)
		}
	}
	return model.Str(parts[1]), mods
}

// x12Date reads DTP03 in D8 or RD8 format. Ranges resolve to their end date.
func x12Date(seg segment) *model.Date {
	value := seg.el(3)
	if seg.el(2) == "RD8" {
		if idx := strings.LastIndex(value, "-"); idx >= 0 {
			value = value[idx+1:]
		}
	}
	return normalize.ParseX12Date(value)
}
