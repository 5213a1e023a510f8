package normalize

import (
	"strings"
	"time"

	"github.com/gyeh/rafscore/internal/model"
)

// Date layouts accepted in FHIR date and dateTime fields.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01",
	"2006",
}

// ParseDate attempts to parse a FHIR date or dateTime string.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *model.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			d := model.NewDate(t.Year(), t.Month(), t.Day())
			return &d
		}
	}
	return nil
}

// ParseX12Date parses a CCYYMMDD date element. Returns nil unless the input
// is exactly eight digits forming a valid date.
func ParseX12Date(s string) *model.Date {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	d := model.NewDate(t.Year(), t.Month(), t.Day())
	return &d
}
