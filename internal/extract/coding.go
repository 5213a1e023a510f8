package extract

// Coding is a system-qualified code. FHIR codings map onto it directly; X12
// composites such as "ABK:E119" are read as system "ABK", code "E119".
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeFor returns the first non-empty code whose system matches, trying each
// system in order of preference. Returns "" when nothing matches.
func CodeFor(codings []Coding, systems ...string) string {
	for _, sys := range systems {
		for _, c := range codings {
			if c.System == sys && c.Code != "" {
				return c.Code
			}
		}
	}
	return ""
}
