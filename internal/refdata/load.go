package refdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

// Paths names the CSV file for each table. Empty paths leave that table empty.
type Paths struct {
	DxToCC             string
	Hierarchies        string
	Coefficients       string
	Chronic            string
	EligibleProcedures string
}

// LoadStats counts rows accepted and skipped by a loader.
type LoadStats struct {
	Rows    int
	Skipped int
}

// Load reads every configured table into a new bundle.
func Load(p Paths) (*ReferenceData, map[string]LoadStats, error) {
	rd := New()
	stats := make(map[string]LoadStats)
	tables := []struct {
		name string
		path string
		load func(io.Reader) (LoadStats, error)
	}{
		{"dx_to_cc", p.DxToCC, rd.LoadDxToCC},
		{"hierarchies", p.Hierarchies, rd.LoadHierarchies},
		{"coefficients", p.Coefficients, rd.LoadCoefficients},
		{"chronic", p.Chronic, rd.LoadChronic},
		{"eligible_procedures", p.EligibleProcedures, rd.LoadEligibleProcedures},
	}
	for _, t := range tables {
		if t.path == "" {
			continue
		}
		st, err := loadFile(t.path, t.load)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s table: %w", t.name, err)
		}
		stats[t.name] = st
	}
	return rd, stats, nil
}

func loadFile(path string, load func(io.Reader) (LoadStats, error)) (LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return load(f)
}

// eachRow feeds every data row after the header to fn. Rows that fail CSV
// parsing, have the wrong field count, or are rejected by fn are counted as
// skipped rather than aborting the load.
func eachRow(r io.Reader, fields int, header bool, fn func(rec []string) bool) (LoadStats, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var st LoadStats
	first := header
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return st, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			st.Skipped++
			continue
		}
		if err != nil {
			return st, err
		}
		if first {
			first = false
			continue
		}
		if len(rec) != fields {
			st.Skipped++
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if !fn(rec) {
			st.Skipped++
			continue
		}
		st.Rows++
	}
}

// LoadDxToCC reads diagnosis_code,cc,model_name rows. A code may map to
// several categories under one model.
func (rd *ReferenceData) LoadDxToCC(r io.Reader) (LoadStats, error) {
	return eachRow(r, 3, true, func(rec []string) bool {
		code := normalize.DiagnosisCode(rec[0])
		if code == "" || rec[1] == "" || rec[2] == "" {
			return false
		}
		addUnique(rd.DxToCC, Key{code, model.ModelName(rec[2])}, rec[1])
		return true
	})
}

// LoadHierarchies reads cc_parent,cc_child,model_domain,model_version,description rows.
func (rd *ReferenceData) LoadHierarchies(r io.Reader) (LoadStats, error) {
	return eachRow(r, 5, true, func(rec []string) bool {
		if rec[0] == "" || rec[1] == "" {
			return false
		}
		name := domainModelName(rec[2], rec[3])
		addUnique(rd.Hierarchies, Key{rec[0], name}, rec[1])
		return true
	})
}

// LoadCoefficients reads coefficient,value,model_domain,model_version rows.
// The model is named from the last two characters of the version, so
// "2024V24" and "V24" both resolve to V24. Later rows overwrite earlier ones.
func (rd *ReferenceData) LoadCoefficients(r io.Reader) (LoadStats, error) {
	return eachRow(r, 4, true, func(rec []string) bool {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil || rec[0] == "" || len(rec[3]) < 2 {
			return false
		}
		name := domainModelName(rec[2], "V"+rec[3][len(rec[3])-2:])
		rd.Coefficients[Key{strings.ToLower(rec[0]), name}] = v
		return true
	})
}

// LoadChronic reads hcc,is_chronic,model_version,model_domain rows. V24 rows
// also answer for the ESRD V24 model, which shares the CMS-HCC V24 flags.
// The first row for a key wins.
func (rd *ReferenceData) LoadChronic(r io.Reader) (LoadStats, error) {
	return eachRow(r, 4, true, func(rec []string) bool {
		if rec[0] == "" {
			return false
		}
		cc := strings.TrimPrefix(rec[0], "HCC")
		chronic := rec[1] == "Y"
		names := []model.ModelName{model.ModelName(rec[3] + " Model " + rec[2])}
		if rec[2] == "V24" {
			names = append(names, model.ModelName(rec[3]+" ESRD Model "+rec[2]))
		}
		for _, name := range names {
			k := Key{cc, name}
			if _, seen := rd.Chronic[k]; !seen {
				rd.Chronic[k] = chronic
			}
		}
		return true
	})
}

// LoadEligibleProcedures reads one procedure code per line. There is no header.
func (rd *ReferenceData) LoadEligibleProcedures(r io.Reader) (LoadStats, error) {
	br := bufio.NewScanner(r)
	var st LoadStats
	for br.Scan() {
		code := strings.TrimPrefix(strings.SplitN(br.Text(), ",", 2)[0], "\ufeff")
		code = normalize.DiagnosisCode(code)
		if code == "" {
			st.Skipped++
			continue
		}
		rd.EligibleProcedures[code] = struct{}{}
		st.Rows++
	}
	return st, br.Err()
}

// domainModelName maps a table's domain and version columns to a model name.
// The ESRD domain is published under the CMS-HCC family name.
func domainModelName(domain, version string) model.ModelName {
	if domain == "ESRD" {
		return model.ModelName("CMS-HCC ESRD Model " + version)
	}
	return model.ModelName(domain + " Model " + version)
}
