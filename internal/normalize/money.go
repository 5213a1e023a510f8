package normalize

import (
	"strconv"
	"strings"
)

// ParseAmount parses a decimal amount or quantity element.
// Returns nil if the input is empty or not a number.
func ParseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
