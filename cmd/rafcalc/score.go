package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/model"
)

var (
	demo        model.DemographicsInput
	graftMonths int
	dxCodes     []string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a list of diagnosis codes",
	Example: "  rafcalc score --dx-to-cc dx.csv --coefficients coef.csv --dx E119,I5030 --age 72 --sex F\n" +
		"  rafcalc score --config rafcalc.yaml --model \"CMS-HCC Model V24\" --dx N186 --age 67 --sex 1 --orec 2",
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringSliceVar(&dxCodes, "dx", nil, "ICD-10-CM diagnosis codes (required)")
	_ = scoreCmd.MarkFlagRequired("dx")
	addDemographicFlags(scoreCmd.Flags())
	rootCmd.AddCommand(scoreCmd)
}

// addDemographicFlags registers the beneficiary attributes shared by the
// single-beneficiary commands.
func addDemographicFlags(f *pflag.FlagSet) {
	f.Float64Var(&demo.Age, "age", 0, "Beneficiary age in years")
	f.StringVar(&demo.Sex, "sex", "", "Sex: M, F, 1 or 2")
	f.StringVar(&demo.DualElgblCd, "dual", "", "Dual eligibility code (00-10, NA or 99)")
	f.StringVar(&demo.OREC, "orec", "0", "Original reason for entitlement code")
	f.StringVar(&demo.CREC, "crec", "", "Current reason for entitlement code")
	f.BoolVar(&demo.NewEnrollee, "new-enrollee", false, "Score as a new enrollee")
	f.BoolVar(&demo.SNP, "snp", false, "Enrolled in a special needs plan")
	f.BoolVar(&demo.LowIncome, "low-income", false, "Low-income subsidy (RxHCC)")
	f.BoolVar(&demo.LTI, "lti", false, "Long-term institutional resident")
	f.IntVar(&graftMonths, "graft-months", -1, "Months since kidney transplant (ESRD models)")
}

func demographics() model.DemographicsInput {
	in := demo
	if graftMonths >= 0 {
		gm := graftMonths
		in.GraftMonths = &gm
	}
	return in
}

func runScore(cmd *cobra.Command, args []string) error {
	log := newLogger()
	_, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}
	res, err := calc.FromDiagnosis(dxCodes, demographics())
	if err != nil {
		return scoreExit(log, err)
	}
	return printJSON(res)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exit(exitcode.ScoreError, err)
	}
	return nil
}
