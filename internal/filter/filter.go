// Package filter decides which service-level records count toward risk
// adjustment, based on type of bill and procedure eligibility.
package filter

import (
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

// Default type-of-bill codes. The trailing "X" is a frequency wildcard;
// only the first two characters are compared.
var (
	DefaultInpatientTOB  = []string{"11X", "41X"}
	DefaultOutpatientTOB = []string{"12X", "13X", "43X", "71X", "73X", "76X", "77X", "85X"}
)

type charSet map[string]struct{}

// Filter admits or drops records without modifying them.
type Filter struct {
	inpatientFacility  charSet
	inpatientService   charSet
	outpatientFacility charSet
	outpatientService  charSet
	eligible           map[string]struct{}
}

// New splits each type-of-bill list into facility-type and service-type
// character sets. Nil lists fall back to the defaults.
func New(inpatient, outpatient []string, eligibleProcedures map[string]struct{}) *Filter {
	if inpatient == nil {
		inpatient = DefaultInpatientTOB
	}
	if outpatient == nil {
		outpatient = DefaultOutpatientTOB
	}
	f := &Filter{eligible: eligibleProcedures}
	f.inpatientFacility, f.inpatientService = splitTOB(inpatient)
	f.outpatientFacility, f.outpatientService = splitTOB(outpatient)
	return f
}

func splitTOB(codes []string) (facility, service charSet) {
	facility, service = charSet{}, charSet{}
	for _, tob := range codes {
		if len(tob) < 2 {
			continue
		}
		facility[tob[:1]] = struct{}{}
		service[tob[1:2]] = struct{}{}
	}
	return facility, service
}

func (s charSet) has(v *string) bool {
	if v == nil {
		return false
	}
	_, ok := s[*v]
	return ok
}

func (f *Filter) eligibleProcedure(r *model.ServiceLevelRecord) bool {
	code := normalize.NormalizeCode(r.ProcedureCode)
	if code == nil {
		return false
	}
	_, ok := f.eligible[*code]
	return ok
}

// Keep reports whether a record counts. With a known type of bill, inpatient
// claims always count and outpatient claims count only for eligible
// procedures. Without one, only eligible procedures count.
func (f *Filter) Keep(r *model.ServiceLevelRecord) bool {
	if r.TypeOfBill() != "" {
		if f.inpatientFacility.has(r.FacilityType) && f.inpatientService.has(r.ServiceType) {
			return true
		}
		return f.outpatientFacility.has(r.FacilityType) &&
			f.outpatientService.has(r.ServiceType) &&
			f.eligibleProcedure(r)
	}
	return f.eligibleProcedure(r)
}

// Apply returns the admitted records in their original order.
func (f *Filter) Apply(records []model.ServiceLevelRecord) []model.ServiceLevelRecord {
	out := make([]model.ServiceLevelRecord, 0, len(records))
	for i := range records {
		if f.Keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
