// mkfixture writes a synthetic beneficiary Parquet file for batch scoring,
// and optionally a matching service-level record file.
// Usage: go run ./cmd/mkfixture --out testdata/beneficiaries.parquet --rows 200 --records testdata/records.parquet
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
)

// codePool spans common CMS-HCC categories: diabetes, CHF, COPD, CKD,
// vascular, depression, morbid obesity and a few codes with no mapping.
var codePool = []string{
	"E119", "E1122", "E1165", "E1022", "I5030", "I509", "I110", "J449", "J441",
	"N184", "N185", "N186", "I739", "F329", "F331", "E6601", "Z6841", "C3490",
	"G309", "I10", "R69", "Z0000",
}

var dualCodes = []string{"00", "00", "00", "01", "02", "04", "08", "NA"}

func main() {
	out := flag.String("out", "testdata/beneficiaries.parquet", "beneficiary parquet output")
	records := flag.String("records", "", "also write service-level records here")
	rows := flag.Int("rows", 200, "beneficiaries to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed))
	bens := make([]model.BeneficiaryRow, *rows)
	var recs []model.RecordRow
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range bens {
		b := model.BeneficiaryRow{
			BeneficiaryID: fmt.Sprintf("B%06d", i+1),
			Age:           float64(40 + rng.IntN(56)),
			Sex:           []string{"M", "F"}[rng.IntN(2)],
			DualElgblCd:   model.Str(dualCodes[rng.IntN(len(dualCodes))]),
			OREC:          model.Str([]string{"0", "0", "0", "1", "2", "3"}[rng.IntN(6)]),
			NewEnrollee:   rng.IntN(20) == 0,
			LTI:           rng.IntN(25) == 0,
		}
		if *b.OREC == "2" || *b.OREC == "3" {
			gm := int32(rng.IntN(12))
			b.GraftMonths = &gm
		}
		seen := map[string]bool{}
		for n := rng.IntN(6); n > 0; n-- {
			code := codePool[rng.IntN(len(codePool))]
			if !seen[code] {
				seen[code] = true
				b.DiagnosisCodes = append(b.DiagnosisCodes, code)
			}
		}
		sort.Strings(b.DiagnosisCodes)
		if b.DiagnosisCodes == nil {
			b.DiagnosisCodes = []string{}
		}
		bens[i] = b

		if *records != "" && len(b.DiagnosisCodes) > 0 {
			recs = append(recs, model.RecordRow{
				ClaimID:              model.Str(fmt.Sprintf("C%06d", i+1)),
				PatientID:            model.Str(b.BeneficiaryID),
				ProcedureCode:        model.Str([]string{"99213", "99214", "99215", "G0438"}[rng.IntN(4)]),
				ClaimDiagnosisCodes:  b.DiagnosisCodes,
				LinkedDiagnosisCodes: b.DiagnosisCodes[:1],
				ClaimType:            model.Str("71"),
				PlaceOfService:       model.Str("11"),
				ServiceDate:          model.Str(base.AddDate(0, 0, rng.IntN(365)).Format("2006-01-02")),
			})
		}
	}

	if err := parquetio.WriteAll(*out, bens); err != nil {
		fmt.Fprintf(os.Stderr, "write beneficiaries: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d beneficiaries to %s\n", len(bens), *out)

	if *records != "" {
		if err := parquetio.WriteAll(*records, recs); err != nil {
			fmt.Fprintf(os.Stderr, "write records: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d records to %s\n", len(recs), *records)
	}

	counts := map[string]int{}
	for _, b := range bens {
		for _, c := range b.DiagnosisCodes {
			counts[c]++
		}
	}
	fmt.Println("Code distribution:")
	for _, c := range codePool {
		if n := counts[c]; n > 0 {
			fmt.Printf("  %-8s %d\n", c, n)
		}
	}
}
