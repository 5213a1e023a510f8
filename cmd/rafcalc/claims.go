package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/extract"
	"github.com/gyeh/rafscore/internal/model"
)

var claimsFormat string

var claimsCmd = &cobra.Command{
	Use:   "claims FILE...",
	Short: "Score FHIR ExplanationOfBenefit or X12 837 claim documents",
	Long: "Parses every claim document, optionally applies the eligibility filter, and scores the " +
		"unique diagnoses. Documents that fail to parse are skipped and reported; the command then " +
		"exits with the partial-success code.",
	Args: cobra.MinimumNArgs(1),
	RunE: runClaims,
}

func init() {
	claimsCmd.Flags().StringVar(&claimsFormat, "format", "", "Document format: fhir or x12 (default: by file extension)")
	addDemographicFlags(claimsCmd.Flags())
	rootCmd.AddCommand(claimsCmd)
}

type claimsOutput struct {
	Result  *model.RAFResult `json:"result"`
	Skipped []extract.Skip   `json:"skipped"`
}

func runClaims(cmd *cobra.Command, args []string) error {
	log := newLogger()
	docs, err := readDocuments(args, claimsFormat)
	if err != nil {
		log.Error().Err(err).Msg("failed to read claim documents")
		return exit(exitcode.UsageError, err)
	}
	_, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, skips, err := calc.FromClaims(ctx, docs, demographics())
	if err != nil {
		return scoreExit(log, err)
	}
	if skips == nil {
		skips = []extract.Skip{}
	}
	if err := printJSON(claimsOutput{Result: res, Skipped: skips}); err != nil {
		return err
	}
	if len(skips) > 0 {
		return exit(exitcode.PartialSuccess, fmt.Errorf("%d of %d documents skipped", len(skips), len(docs)))
	}
	return nil
}

// readDocuments loads claim files. Without an explicit format, .json files
// are FHIR and anything else is X12.
func readDocuments(paths []string, format string) ([]extract.Document, error) {
	var forced extract.Format
	if format != "" {
		f, err := extract.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		forced = f
	}
	docs := make([]extract.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		f := forced
		if f == "" {
			f = extract.FormatX12
			if strings.EqualFold(filepath.Ext(p), ".json") {
				f = extract.FormatFHIR
			}
		}
		docs = append(docs, extract.Document{Format: f, Data: data})
	}
	return docs, nil
}
