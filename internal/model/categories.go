package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// CategorySet is a set of condition category identifiers.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from the given identifiers.
func NewCategorySet(ccs ...string) CategorySet {
	s := make(CategorySet, len(ccs))
	for _, cc := range ccs {
		s[cc] = struct{}{}
	}
	return s
}

func (s CategorySet) Has(cc string) bool {
	_, ok := s[cc]
	return ok
}

// HasAny reports whether at least one of ccs is present.
func (s CategorySet) HasAny(ccs ...string) bool {
	for _, cc := range ccs {
		if s.Has(cc) {
			return true
		}
	}
	return false
}

func (s CategorySet) Clone() CategorySet {
	out := make(CategorySet, len(s))
	for cc := range s {
		out[cc] = struct{}{}
	}
	return out
}

// Sorted returns the members ordered numerically when possible, then lexically.
func (s CategorySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for cc := range s {
		out = append(out, cc)
	}
	SortCategories(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s CategorySet) Equal(o CategorySet) bool {
	if len(s) != len(o) {
		return false
	}
	for cc := range s {
		if !o.Has(cc) {
			return false
		}
	}
	return true
}

// SortCategories orders category identifiers numerically, falling back to
// string order for non-numeric identifiers.
func SortCategories(ccs []string) {
	sort.Slice(ccs, func(i, j int) bool {
		a, errA := strconv.Atoi(ccs[i])
		b, errB := strconv.Atoi(ccs[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ccs[i] < ccs[j]
	})
}

// Interactions maps interaction variable names to their values. Iteration
// follows insertion order so output is reproducible. Zero values are kept.
type Interactions struct {
	names  []string
	values map[string]int
}

func NewInteractions() *Interactions {
	return &Interactions{values: make(map[string]int)}
}

// Set stores v under name. Re-setting a name keeps its original position.
func (in *Interactions) Set(name string, v int) {
	if in.values == nil {
		in.values = make(map[string]int)
	}
	if _, ok := in.values[name]; !ok {
		in.names = append(in.names, name)
	}
	in.values[name] = v
}

// SetBool stores 1 for true and 0 for false.
func (in *Interactions) SetBool(name string, b bool) {
	in.Set(name, boolInt(b))
}

func (in *Interactions) Get(name string) (int, bool) {
	if in == nil {
		return 0, false
	}
	v, ok := in.values[name]
	return v, ok
}

// Names returns variable names in insertion order.
func (in *Interactions) Names() []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in.names...)
}

func (in *Interactions) Len() int {
	if in == nil {
		return 0
	}
	return len(in.names)
}

// Filter returns a new Interactions holding the entries for which keep returns true.
func (in *Interactions) Filter(keep func(name string, v int) bool) *Interactions {
	out := NewInteractions()
	if in == nil {
		return out
	}
	for _, n := range in.names {
		if keep(n, in.values[n]) {
			out.Set(n, in.values[n])
		}
	}
	return out
}

// Map returns a plain copy of the values.
func (in *Interactions) Map() map[string]int {
	out := make(map[string]int, in.Len())
	if in == nil {
		return out
	}
	for k, v := range in.values {
		out[k] = v
	}
	return out
}

func (in *Interactions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if in != nil {
		for i, n := range in.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(n)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(in.values[n]))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
