package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
)

var recordsCmd = &cobra.Command{
	Use:   "records FILE",
	Short: "Score pre-extracted service-level records (Parquet or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecords,
}

func init() {
	addDemographicFlags(recordsCmd.Flags())
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	log := newLogger()
	records, err := readRecords(args[0])
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("failed to read records")
		return exit(exitcode.ValidationError, err)
	}
	_, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}
	res, err := calc.FromRecords(records, demographics())
	if err != nil {
		return scoreExit(log, err)
	}
	return printJSON(res)
}

// readRecords loads a Parquet file written by "rafcalc extract" or a JSON
// array of records.
func readRecords(path string) ([]model.ServiceLevelRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		reader, err := parquetio.Open[model.RecordRow](path)
		if err != nil {
			return nil, err
		}
		err = parquetio.ValidateSchema(reader.Schema(), parquetio.RecordColumns...)
		reader.Close()
		if err != nil {
			return nil, err
		}
		rows, err := parquetio.ReadAll[model.RecordRow](path)
		if err != nil {
			return nil, err
		}
		out := make([]model.ServiceLevelRecord, len(rows))
		for i, row := range rows {
			if out[i], err = row.Record(); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []model.ServiceLevelRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return out, nil
}
