// Package raf ties extraction, filtering and the risk engine together into
// the three calculation entry points.
package raf

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/extract"
	"github.com/gyeh/rafscore/internal/filter"
	"github.com/gyeh/rafscore/internal/hcc"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/refdata"
)

// InputError reports a caller-supplied input that cannot be scored.
// Index is the offending record position, or -1 when not applicable.
type InputError struct {
	Index int
	Msg   string
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("record %d: %s", e.Index, e.Msg)
	}
	return e.Msg
}

// Options configures a Calculator.
type Options struct {
	Model model.ModelName
	// FilterClaims drops records that fail the eligibility filter before
	// diagnoses are collected.
	FilterClaims  bool
	InpatientTOB  []string
	OutpatientTOB []string
	// Workers bounds concurrent document parsing in FromClaims.
	Workers int
	Logger  zerolog.Logger
}

// Calculator scores beneficiaries against one model and one set of
// reference tables. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	data    *refdata.ReferenceData
	model   model.ModelName
	version string
	filter  *filter.Filter
	opts    Options
}

// New builds a Calculator. The model must be one of model.AllModels.
func New(rd *refdata.ReferenceData, opts Options) (*Calculator, error) {
	if rd == nil {
		return nil, fmt.Errorf("reference data is required")
	}
	if opts.Model == "" {
		opts.Model = model.DefaultModel
	}
	info, ok := model.ModelByName(string(opts.Model))
	if !ok {
		return nil, fmt.Errorf("unknown model %q (want one of: %s)", opts.Model, strings.Join(model.ModelNames(), ", "))
	}
	return &Calculator{
		data:    rd,
		model:   info.Name,
		version: info.Version,
		filter:  filter.New(opts.InpatientTOB, opts.OutpatientTOB, rd.EligibleProcedures),
		opts:    opts,
	}, nil
}

func (c *Calculator) Model() model.ModelName { return c.model }

// Version is the demographic categorization version for the model.
func (c *Calculator) Version() string { return c.version }

// FromDiagnosis scores a list of diagnosis codes directly.
func (c *Calculator) FromDiagnosis(codes []string, in model.DemographicsInput) (*model.RAFResult, error) {
	if len(codes) == 0 {
		return nil, &InputError{Index: -1, Msg: "diagnosis code list is empty"}
	}
	return c.Calculate(codes, in, nil)
}

// FromClaims parses raw claim documents and scores the diagnoses they carry.
// Documents that fail to parse are skipped and returned alongside the result.
func (c *Calculator) FromClaims(ctx context.Context, docs []extract.Document, in model.DemographicsInput) (*model.RAFResult, []extract.Skip, error) {
	batch, err := extract.ParseBatch(ctx, docs, extract.BatchOptions{Workers: c.opts.Workers, Logger: c.opts.Logger})
	if err != nil {
		return nil, nil, err
	}
	res, err := c.scoreRecords(batch.Records, in)
	if err != nil {
		return nil, batch.Skips, err
	}
	return res, batch.Skips, nil
}

// FromRecords scores pre-extracted service-level records. Every record's
// linked diagnoses must appear among its claim diagnoses.
func (c *Calculator) FromRecords(records []model.ServiceLevelRecord, in model.DemographicsInput) (*model.RAFResult, error) {
	for i := range records {
		if !records[i].LinkedSubsetOfClaim() {
			return nil, &InputError{Index: i, Msg: "linked_diagnosis_codes must be a subset of claim_diagnosis_codes"}
		}
	}
	return c.scoreRecords(records, in)
}

func (c *Calculator) scoreRecords(records []model.ServiceLevelRecord, in model.DemographicsInput) (*model.RAFResult, error) {
	if c.opts.FilterClaims {
		before := len(records)
		records = c.filter.Apply(records)
		c.opts.Logger.Debug().Int("records", before).Int("kept", len(records)).Msg("eligibility filter applied")
	}
	return c.Calculate(model.UniqueClaimDiagnoses(records), in, records)
}

// Calculate runs the risk engine over codes. records, when non-nil, is
// attached to the result for auditing.
func (c *Calculator) Calculate(codes []string, in model.DemographicsInput, records []model.ServiceLevelRecord) (*model.RAFResult, error) {
	demo, err := hcc.CategorizeDemographics(in, c.version, c.model)
	if err != nil {
		return nil, fmt.Errorf("categorize demographics: %w", err)
	}

	ccToDx := hcc.MapDiagnoses(codes, c.model, c.data)
	ccs := hcc.ApplyHierarchies(hcc.Categories(ccToDx), c.model, c.data)
	interactions := hcc.ApplyInteractions(demo, ccs, c.model)
	coefficients := hcc.ApplyCoefficients(demo, ccs, interactions, c.model, c.data)

	demoInteractions := hcc.DemographicOnly(interactions)
	chronic := make(model.CategorySet)
	for cc := range ccs {
		if c.data.IsChronic(cc, c.model) {
			chronic[cc] = struct{}{}
		}
	}
	demoOnly := model.SumCoefficients(hcc.ApplyCoefficients(demo, model.NewCategorySet(), demoInteractions, c.model, c.data))
	chronicOnly := model.SumCoefficients(hcc.ApplyCoefficients(demo, chronic, demoInteractions, c.model, c.data)) - demoOnly
	total := model.SumCoefficients(coefficients)

	if codes == nil {
		codes = []string{}
	}
	return &model.RAFResult{
		RiskScore:             total,
		RiskScoreDemographics: demoOnly,
		RiskScoreChronicOnly:  chronicOnly,
		RiskScoreHCC:          total - demoOnly,
		HCCList:               ccs.Sorted(),
		CCToDx:                ccToDx,
		Coefficients:          coefficients,
		Interactions:          interactions,
		Demographics:          demo,
		ModelName:             c.model,
		Version:               c.version,
		DiagnosisCodes:        codes,
		ServiceLevelRecords:   records,
	}, nil
}
