package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/hcc"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
	"github.com/gyeh/rafscore/internal/parquetio"
)

var planSample int64

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and stats for a beneficiary file (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.InputPath, "input", "", "Beneficiary Parquet file (required)")
	planCmd.Flags().Int64Var(&planSample, "sample", 1000, "Rows to sample")
	_ = planCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := newLogger()
	rd, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}

	sha, err := normalize.FileHash(cfg.InputPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		return exit(exitcode.ValidationError, err)
	}
	stat, err := os.Stat(cfg.InputPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		return exit(exitcode.ValidationError, err)
	}

	reader, err := parquetio.Open[model.BeneficiaryRow](cfg.InputPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open parquet file")
		return exit(exitcode.ValidationError, err)
	}
	defer reader.Close()
	if err := parquetio.ValidateSchema(reader.Schema(), parquetio.BeneficiaryColumns...); err != nil {
		log.Error().Err(err).Msg("schema validation failed")
		return exit(exitcode.ValidationError, err)
	}

	numRows := reader.NumRows()
	sampleSize := min(planSample, numRows)
	m := calc.Model()

	ccCounts := make(map[string]int64)
	var sampled, unmapped, invalid int64
	buf := make([]model.BeneficiaryRow, 256)
	for sampled < sampleSize {
		n, readErr := reader.Read(buf)
		for i := 0; i < n && sampled < sampleSize; i++ {
			sampled++
			b := &buf[i]
			if _, err := hcc.CategorizeDemographics(b.Input(), calc.Version(), m); err != nil {
				invalid++
			}
			ccToDx := hcc.MapDiagnoses(b.DiagnosisCodes, m, rd)
			if len(b.DiagnosisCodes) > 0 && len(ccToDx) == 0 {
				unmapped++
			}
			for cc := range hcc.ApplyHierarchies(hcc.Categories(ccToDx), m, rd) {
				ccCounts[cc]++
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			log.Error().Err(readErr).Msg("failed to read sample rows")
			return exit(exitcode.ValidationError, readErr)
		}
	}

	fmt.Println("=== rafcalc plan ===")
	fmt.Printf("File:       %s\n", cfg.InputPath)
	fmt.Printf("SHA-256:    %s\n", sha)
	fmt.Printf("Size:       %d bytes\n", stat.Size())
	fmt.Printf("Total rows: %d\n", numRows)
	fmt.Printf("Model:      %s\n", m)
	fmt.Printf("Sampled:    %d rows\n", sampled)
	fmt.Printf("Invalid demographics: %d (would be skipped)\n", invalid)
	fmt.Printf("No mapped categories: %d\n", unmapped)
	fmt.Println()
	fmt.Println("Category prevalence after hierarchies (sampled):")

	ccs := make([]string, 0, len(ccCounts))
	for cc := range ccCounts {
		ccs = append(ccs, cc)
	}
	sort.Slice(ccs, func(i, j int) bool {
		if ccCounts[ccs[i]] != ccCounts[ccs[j]] {
			return ccCounts[ccs[i]] > ccCounts[ccs[j]]
		}
		return ccs[i] < ccs[j]
	})
	for _, cc := range ccs {
		fmt.Printf("  HCC %-6s %6d (%.1f%%)\n", cc, ccCounts[cc], 100*float64(ccCounts[cc])/float64(sampled))
	}
	fmt.Println("Schema validation: OK")
	return nil
}
