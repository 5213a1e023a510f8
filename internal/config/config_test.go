package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/rafscore/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `model: CMS-HCC Model V24
tables:
  dx_to_cc: /data/dx.csv
  coefficients: /data/coef.csv
filter_claims: true
inpatient_tob: ["111", "117"]
workers: 4
listen: ":9090"
`)

	var c Config
	if err := c.LoadFromFile(path, nil); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ModelName() != model.CMSHCCV24 {
		t.Errorf("model = %q", c.Model)
	}
	if c.Tables.DxToCC != "/data/dx.csv" || c.Tables.Coefficients != "/data/coef.csv" {
		t.Errorf("tables = %+v", c.Tables)
	}
	if !c.FilterClaims || c.Workers != 4 || c.ListenAddr != ":9090" {
		t.Errorf("config = %+v", c)
	}
	if len(c.InpatientTOB) != 2 || c.OutpatientTOB != nil {
		t.Errorf("tob sets = %v / %v", c.InpatientTOB, c.OutpatientTOB)
	}
}

func TestLoadFromFile_FlagsWin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "model: CMS-HCC Model V22\nlog_format: json\nfilter_claims: true\n")

	c := Config{Model: "RxHCC Model V08", LogFormat: "text"}
	explicit := func(flag string) bool { return flag == "model" || flag == "filter-claims" }
	if err := c.LoadFromFile(path, explicit); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Model != "RxHCC Model V08" {
		t.Errorf("explicit flag overridden: model = %q", c.Model)
	}
	if c.LogFormat != "json" {
		t.Errorf("log format = %q, want json from file", c.LogFormat)
	}
	if c.FilterClaims {
		t.Error("filter_claims from file should not override an explicit flag")
	}
}

func TestLoadFromFile_BadTOB(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "outpatient_tob: [\"1\"]\n")

	var c Config
	if err := c.LoadFromFile(path, nil); err == nil {
		t.Fatal("expected error for one-digit type of bill")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	err := c.LoadFromFile("/nonexistent/config.yaml", nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	dx := writeFile(t, dir, "dx.csv", "diagnosis_code,cc,model_name\n")
	coef := writeFile(t, dir, "coef.csv", "coefficient,value,model_domain,model_version\n")

	good := Config{Tables: Tables{DxToCC: dx, Coefficients: coef}}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := map[string]Config{
		"unknown model":       {Model: "CMS-HCC Model V99", Tables: good.Tables},
		"missing dx table":    {Tables: Tables{Coefficients: coef}},
		"missing coefficient": {Tables: Tables{DxToCC: dx}},
		"unreadable chronic":  {Tables: Tables{DxToCC: dx, Coefficients: coef, Chronic: filepath.Join(dir, "nope.csv")}},
		"bad log format":      {LogFormat: "xml", Tables: good.Tables},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPaths(t *testing.T) {
	c := Config{Tables: Tables{DxToCC: "a", Hierarchies: "b", Coefficients: "c", Chronic: "d", EligibleProcedures: "e"}}
	p := c.Paths()
	if p.DxToCC != "a" || p.Hierarchies != "b" || p.Coefficients != "c" || p.Chronic != "d" || p.EligibleProcedures != "e" {
		t.Errorf("paths = %+v", p)
	}
}
