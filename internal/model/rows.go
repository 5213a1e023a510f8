package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordRow mirrors the Parquet schema for a service-level record.
// Dates are stored as YYYY-MM-DD strings.
type RecordRow struct {
	ClaimID               *string  `parquet:"claim_id,optional"`
	ProcedureCode         *string  `parquet:"procedure_code,optional"`
	NDC                   *string  `parquet:"ndc,optional"`
	LinkedDiagnosisCodes  []string `parquet:"linked_diagnosis_codes,list"`
	ClaimDiagnosisCodes   []string `parquet:"claim_diagnosis_codes,list"`
	ClaimType             *string  `parquet:"claim_type,optional"`
	ProviderSpecialty     *string  `parquet:"provider_specialty,optional"`
	PerformingProviderNPI *string  `parquet:"performing_provider_npi,optional"`
	BillingProviderNPI    *string  `parquet:"billing_provider_npi,optional"`
	PatientID             *string  `parquet:"patient_id,optional"`
	FacilityType          *string  `parquet:"facility_type,optional"`
	ServiceType           *string  `parquet:"service_type,optional"`
	ServiceDate           *string  `parquet:"service_date,optional"`
	PlaceOfService        *string  `parquet:"place_of_service,optional"`
	Quantity              *float64 `parquet:"quantity,optional"`
	QuantityUnit          *string  `parquet:"quantity_unit,optional"`
	Modifiers             []string `parquet:"modifiers,list"`
	AllowedAmount         *float64 `parquet:"allowed_amount,optional"`
}

// ToRecordRow flattens a record for Parquet output.
func ToRecordRow(r ServiceLevelRecord) RecordRow {
	row := RecordRow{
		ClaimID:               r.ClaimID,
		ProcedureCode:         r.ProcedureCode,
		NDC:                   r.NDC,
		LinkedDiagnosisCodes:  r.LinkedDiagnosisCodes,
		ClaimDiagnosisCodes:   r.ClaimDiagnosisCodes,
		ClaimType:             r.ClaimType,
		ProviderSpecialty:     r.ProviderSpecialty,
		PerformingProviderNPI: r.PerformingProviderNPI,
		BillingProviderNPI:    r.BillingProviderNPI,
		PatientID:             r.PatientID,
		FacilityType:          r.FacilityType,
		ServiceType:           r.ServiceType,
		PlaceOfService:        r.PlaceOfService,
		Quantity:              r.Quantity,
		QuantityUnit:          r.QuantityUnit,
		Modifiers:             r.Modifiers,
		AllowedAmount:         r.AllowedAmount,
	}
	if r.ServiceDate != nil {
		row.ServiceDate = Str(r.ServiceDate.String())
	}
	return row
}

// Record converts a Parquet row back into a ServiceLevelRecord.
func (row RecordRow) Record() (ServiceLevelRecord, error) {
	r := ServiceLevelRecord{
		ClaimID:               row.ClaimID,
		ProcedureCode:         row.ProcedureCode,
		NDC:                   row.NDC,
		LinkedDiagnosisCodes:  row.LinkedDiagnosisCodes,
		ClaimDiagnosisCodes:   row.ClaimDiagnosisCodes,
		ClaimType:             row.ClaimType,
		ProviderSpecialty:     row.ProviderSpecialty,
		PerformingProviderNPI: row.PerformingProviderNPI,
		BillingProviderNPI:    row.BillingProviderNPI,
		PatientID:             row.PatientID,
		FacilityType:          row.FacilityType,
		ServiceType:           row.ServiceType,
		PlaceOfService:        row.PlaceOfService,
		Quantity:              row.Quantity,
		QuantityUnit:          row.QuantityUnit,
		Modifiers:             row.Modifiers,
		AllowedAmount:         row.AllowedAmount,
	}
	if row.ServiceDate != nil && *row.ServiceDate != "" {
		d, err := ParseDate(*row.ServiceDate)
		if err != nil {
			return ServiceLevelRecord{}, err
		}
		r.ServiceDate = &d
	}
	return r, nil
}

// BeneficiaryRow is one beneficiary to score in batch mode: demographics
// plus the diagnosis codes collected for them.
type BeneficiaryRow struct {
	BeneficiaryID  string   `parquet:"beneficiary_id"`
	Age            float64  `parquet:"age"`
	Sex            string   `parquet:"sex"`
	DualElgblCd    *string  `parquet:"dual_elgbl_cd,optional"`
	OREC           *string  `parquet:"orec,optional"`
	CREC           *string  `parquet:"crec,optional"`
	NewEnrollee    bool     `parquet:"new_enrollee"`
	SNP            bool     `parquet:"snp"`
	LowIncome      bool     `parquet:"low_income"`
	LTI            bool     `parquet:"lti"`
	GraftMonths    *int32   `parquet:"graft_months,optional"`
	DiagnosisCodes []string `parquet:"diagnosis_codes,list"`
}

// Input returns the demographics carried by the row.
func (b BeneficiaryRow) Input() DemographicsInput {
	in := DemographicsInput{
		Age:         b.Age,
		Sex:         b.Sex,
		DualElgblCd: Deref(b.DualElgblCd),
		OREC:        Deref(b.OREC),
		CREC:        Deref(b.CREC),
		NewEnrollee: b.NewEnrollee,
		SNP:         b.SNP,
		LowIncome:   b.LowIncome,
		LTI:         b.LTI,
	}
	if b.GraftMonths != nil {
		gm := int(*b.GraftMonths)
		in.GraftMonths = &gm
	}
	return in
}

// ScoreRow is the DB-ready and Parquet-ready summary of one scored beneficiary.
type ScoreRow struct {
	RunID                 uuid.UUID `parquet:"-" json:"run_id"`
	BeneficiaryID         string    `parquet:"beneficiary_id" json:"beneficiary_id"`
	ModelName             string    `parquet:"model_name" json:"model_name"`
	Category              string    `parquet:"category" json:"category"`
	RiskScore             float64   `parquet:"risk_score" json:"risk_score"`
	RiskScoreDemographics float64   `parquet:"risk_score_demographics" json:"risk_score_demographics"`
	RiskScoreChronicOnly  float64   `parquet:"risk_score_chronic_only" json:"risk_score_chronic_only"`
	RiskScoreHCC          float64   `parquet:"risk_score_hcc" json:"risk_score_hcc"`
	HCCList               []string  `parquet:"hcc_list,list" json:"hcc_list"`
	Coefficients          string    `parquet:"coefficients" json:"coefficients"`
	ScoredAt              time.Time `parquet:"scored_at,timestamp" json:"scored_at"`
}

// NewScoreRow summarizes a result for persistence.
func NewScoreRow(runID uuid.UUID, beneficiaryID string, res *RAFResult, scoredAt time.Time) (ScoreRow, error) {
	coef, err := json.Marshal(res.Coefficients)
	if err != nil {
		return ScoreRow{}, fmt.Errorf("marshal coefficients: %w", err)
	}
	hccs := res.HCCList
	if hccs == nil {
		hccs = []string{}
	}
	return ScoreRow{
		RunID:                 runID,
		BeneficiaryID:         beneficiaryID,
		ModelName:             string(res.ModelName),
		Category:              res.Demographics.Category,
		RiskScore:             res.RiskScore,
		RiskScoreDemographics: res.RiskScoreDemographics,
		RiskScoreChronicOnly:  res.RiskScoreChronicOnly,
		RiskScoreHCC:          res.RiskScoreHCC,
		HCCList:               hccs,
		Coefficients:          string(coef),
		ScoredAt:              scoredAt.UTC(),
	}, nil
}

// ScoreColumns returns the ordered column names for COPY into raf.scores.
func ScoreColumns() []string {
	return []string{
		"run_id",
		"beneficiary_id",
		"model_name",
		"category",
		"risk_score",
		"risk_score_demographics",
		"risk_score_chronic_only",
		"risk_score_hcc",
		"hcc_list",
		"coefficients",
		"scored_at",
	}
}

// CopyValues returns the row values in the same order as ScoreColumns.
func (s *ScoreRow) CopyValues() []any {
	return []any{
		s.RunID,
		s.BeneficiaryID,
		s.ModelName,
		s.Category,
		s.RiskScore,
		s.RiskScoreDemographics,
		s.RiskScoreChronicOnly,
		s.RiskScoreHCC,
		s.HCCList,
		s.Coefficients,
		s.ScoredAt,
	}
}
