package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/refdata"
)

// Tables holds the reference table paths.
type Tables struct {
	DxToCC             string `yaml:"dx_to_cc"`
	Hierarchies        string `yaml:"hierarchies"`
	Coefficients       string `yaml:"coefficients"`
	Chronic            string `yaml:"chronic"`
	EligibleProcedures string `yaml:"eligible_procedures"`
}

// Config holds all runtime configuration for a rafcalc run.
type Config struct {
	DSN           string
	LogFormat     string // "text" or "json"
	LogLevel      string
	Model         string
	Tables        Tables
	FilterClaims  bool
	InpatientTOB  []string // nil means the built-in defaults
	OutpatientTOB []string
	ListenAddr    string
	Workers       int
	InputPath     string
	OutputPath    string
	Force         bool // re-score an input already scored under the same model
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	Model         string   `yaml:"model"`
	Tables        Tables   `yaml:"tables"`
	FilterClaims  *bool    `yaml:"filter_claims"`
	InpatientTOB  []string `yaml:"inpatient_tob"`
	OutpatientTOB []string `yaml:"outpatient_tob"`
	LogFormat     string   `yaml:"log_format"`
	LogLevel      string   `yaml:"log_level"`
	DSN           string   `yaml:"dsn"`
	Listen        string   `yaml:"listen"`
	Workers       int      `yaml:"workers"`
}

// LoadFromFile reads a YAML config file and merges it into c. A value is
// taken from the file only when explicit(flag) is false for its flag, so
// command-line flags win. explicit may be nil.
func (c *Config) LoadFromFile(path string, explicit func(flag string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	setStr := func(flag string, dst *string, v string) {
		if v != "" && !explicit(flag) {
			*dst = v
		}
	}
	setStr("model", &c.Model, yc.Model)
	setStr("dx-to-cc", &c.Tables.DxToCC, yc.Tables.DxToCC)
	setStr("hierarchies", &c.Tables.Hierarchies, yc.Tables.Hierarchies)
	setStr("coefficients", &c.Tables.Coefficients, yc.Tables.Coefficients)
	setStr("chronic", &c.Tables.Chronic, yc.Tables.Chronic)
	setStr("eligible-procedures", &c.Tables.EligibleProcedures, yc.Tables.EligibleProcedures)
	setStr("log-format", &c.LogFormat, yc.LogFormat)
	setStr("log-level", &c.LogLevel, yc.LogLevel)
	setStr("dsn", &c.DSN, yc.DSN)
	setStr("listen", &c.ListenAddr, yc.Listen)

	if yc.FilterClaims != nil && !explicit("filter-claims") {
		c.FilterClaims = *yc.FilterClaims
	}
	if yc.Workers > 0 && !explicit("workers") {
		c.Workers = yc.Workers
	}
	if len(yc.InpatientTOB) > 0 && !explicit("inpatient-tob") {
		c.InpatientTOB = yc.InpatientTOB
	}
	if len(yc.OutpatientTOB) > 0 && !explicit("outpatient-tob") {
		c.OutpatientTOB = yc.OutpatientTOB
	}
	return c.validateTOB()
}

// validateTOB checks that every type-of-bill code has a facility and a
// service digit.
func (c *Config) validateTOB() error {
	for _, set := range [][]string{c.InpatientTOB, c.OutpatientTOB} {
		for _, code := range set {
			if len(code) < 2 {
				return fmt.Errorf("type of bill %q must have at least two digits", code)
			}
		}
	}
	return nil
}

// ModelName returns the configured model, or the default when unset.
func (c *Config) ModelName() model.ModelName {
	if c.Model == "" {
		return model.DefaultModel
	}
	return model.ModelName(c.Model)
}

// Paths converts the table configuration for refdata.Load.
func (c *Config) Paths() refdata.Paths {
	return refdata.Paths{
		DxToCC:             c.Tables.DxToCC,
		Hierarchies:        c.Tables.Hierarchies,
		Coefficients:       c.Tables.Coefficients,
		Chronic:            c.Tables.Chronic,
		EligibleProcedures: c.Tables.EligibleProcedures,
	}
}

// Validate checks the model name and reference table paths.
func (c *Config) Validate() error {
	if _, ok := model.ModelByName(string(c.ModelName())); !ok {
		return fmt.Errorf("unknown model %q (want one of: %s)", c.Model, strings.Join(model.ModelNames(), ", "))
	}
	if c.Tables.DxToCC == "" {
		return fmt.Errorf("--dx-to-cc is required")
	}
	if c.Tables.Coefficients == "" {
		return fmt.Errorf("--coefficients is required")
	}
	for _, p := range []string{c.Tables.DxToCC, c.Tables.Hierarchies, c.Tables.Coefficients, c.Tables.Chronic, c.Tables.EligibleProcedures} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("reference table not accessible: %w", err)
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format %q must be text or json", c.LogFormat)
	}
	return c.validateTOB()
}
