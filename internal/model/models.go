package model

// ModelName identifies one published risk-adjustment model variant.
type ModelName string

const (
	CMSHCCV22    ModelName = "CMS-HCC Model V22"
	CMSHCCV24    ModelName = "CMS-HCC Model V24"
	CMSHCCV28    ModelName = "CMS-HCC Model V28"
	ESRDV21      ModelName = "CMS-HCC ESRD Model V21"
	ESRDV24      ModelName = "CMS-HCC ESRD Model V24"
	RxHCCV08     ModelName = "RxHCC Model V08"
	DefaultModel           = CMSHCCV28
)

// Family groups model variants that share coefficient prefixes and demographic rules.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyCMS
	FamilyESRD
	FamilyRx
)

// ModelInfo describes a supported model variant.
type ModelInfo struct {
	Name    ModelName
	Family  Family
	Version string // demographic categorization version: "V2", "V4" or "V6"
}

// AllModels lists the supported model variants in canonical order.
var AllModels = []ModelInfo{
	{Name: CMSHCCV22, Family: FamilyCMS, Version: "V2"},
	{Name: CMSHCCV24, Family: FamilyCMS, Version: "V2"},
	{Name: CMSHCCV28, Family: FamilyCMS, Version: "V2"},
	{Name: ESRDV21, Family: FamilyESRD, Version: "V2"},
	{Name: ESRDV24, Family: FamilyESRD, Version: "V2"},
	{Name: RxHCCV08, Family: FamilyRx, Version: "V4"},
}

// ModelByName returns the ModelInfo for the given name, or ok=false.
func ModelByName(name string) (ModelInfo, bool) {
	for _, m := range AllModels {
		if string(m.Name) == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Info returns the model's ModelInfo. Unknown names report FamilyUnknown and version "V2".
func (m ModelName) Info() ModelInfo {
	if info, ok := ModelByName(string(m)); ok {
		return info
	}
	return ModelInfo{Name: m, Family: FamilyUnknown, Version: "V2"}
}

// ModelNames returns just the names of all supported models.
func ModelNames() []string {
	names := make([]string, len(AllModels))
	for i, m := range AllModels {
		names[i] = string(m.Name)
	}
	return names
}
