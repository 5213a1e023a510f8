package model

// DemographicsInput holds the raw beneficiary attributes supplied by the caller.
type DemographicsInput struct {
	Age         float64 `json:"age" yaml:"age"`
	Sex         string  `json:"sex" yaml:"sex"`
	DualElgblCd string  `json:"dual_elgbl_cd,omitempty" yaml:"dual_elgbl_cd"`
	OREC        string  `json:"orec,omitempty" yaml:"orec"`
	CREC        string  `json:"crec,omitempty" yaml:"crec"`
	NewEnrollee bool    `json:"new_enrollee,omitempty" yaml:"new_enrollee"`
	SNP         bool    `json:"snp,omitempty" yaml:"snp"`
	LowIncome   bool    `json:"low_income,omitempty" yaml:"low_income"`
	LTI         bool    `json:"lti,omitempty" yaml:"lti"`
	GraftMonths *int    `json:"graft_months,omitempty" yaml:"graft_months"`
}

// Demographics is the derived beneficiary snapshot. It is built once by the
// categorizer and not modified afterwards.
type Demographics struct {
	Age         int    `json:"age"`
	Sex         string `json:"sex"`
	DualElgblCd string `json:"dual_elgbl_cd,omitempty"`
	OREC        string `json:"orec,omitempty"`
	CREC        string `json:"crec,omitempty"`
	NewEnrollee bool   `json:"new_enrollee"`
	SNP         bool   `json:"snp"`
	LowIncome   bool   `json:"low_income"`
	GraftMonths *int   `json:"graft_months,omitempty"`
	Version     string `json:"version"`

	Category     string `json:"category"`
	NonAged      bool   `json:"non_aged"`
	OrigDisabled bool   `json:"orig_disabled"`
	Disabled     bool   `json:"disabled"`
	ESRD         bool   `json:"esrd"`
	LTI          bool   `json:"lti"`
	FBD          bool   `json:"fbd"`
	PBD          bool   `json:"pbd"`
}

// Female reports whether the standardized sex code is female.
func (d Demographics) Female() bool {
	return d.Sex == "2" || d.Sex == "F"
}
