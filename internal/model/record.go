package model

// ServiceLevelRecord is one billable service line. Claim-scoped fields are
// repeated on every line of the claim. Optional fields are nil when absent.
type ServiceLevelRecord struct {
	ClaimID               *string  `json:"claim_id"`
	ProcedureCode         *string  `json:"procedure_code"`
	NDC                   *string  `json:"ndc"`
	LinkedDiagnosisCodes  []string `json:"linked_diagnosis_codes"`
	ClaimDiagnosisCodes   []string `json:"claim_diagnosis_codes"`
	ClaimType             *string  `json:"claim_type"`
	ProviderSpecialty     *string  `json:"provider_specialty"`
	PerformingProviderNPI *string  `json:"performing_provider_npi"`
	BillingProviderNPI    *string  `json:"billing_provider_npi"`
	PatientID             *string  `json:"patient_id"`
	FacilityType          *string  `json:"facility_type"`
	ServiceType           *string  `json:"service_type"`
	ServiceDate           *Date    `json:"service_date"`
	PlaceOfService        *string  `json:"place_of_service"`
	Quantity              *float64 `json:"quantity"`
	QuantityUnit          *string  `json:"quantity_unit"`
	Modifiers             []string `json:"modifiers"`
	AllowedAmount         *float64 `json:"allowed_amount"`
}

// HeaderOnly reports whether the record carries neither a procedure nor a drug code.
func (r *ServiceLevelRecord) HeaderOnly() bool {
	return isBlank(r.ProcedureCode) && isBlank(r.NDC)
}

// LinkedSubsetOfClaim reports whether every linked diagnosis also appears on the claim.
func (r *ServiceLevelRecord) LinkedSubsetOfClaim() bool {
	claim := make(map[string]struct{}, len(r.ClaimDiagnosisCodes))
	for _, c := range r.ClaimDiagnosisCodes {
		claim[c] = struct{}{}
	}
	for _, c := range r.LinkedDiagnosisCodes {
		if _, ok := claim[c]; !ok {
			return false
		}
	}
	return true
}

// TypeOfBill returns facility type + service type, or "" when either is missing.
func (r *ServiceLevelRecord) TypeOfBill() string {
	if isBlank(r.FacilityType) || isBlank(r.ServiceType) {
		return ""
	}
	return *r.FacilityType + *r.ServiceType
}

// UniqueClaimDiagnoses returns the distinct claim-level diagnosis codes across
// records, in first-seen order.
func UniqueClaimDiagnoses(records []ServiceLevelRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range records {
		for _, c := range records[i].ClaimDiagnosisCodes {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

// Str returns a pointer to s, or nil for the empty string.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *s or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
