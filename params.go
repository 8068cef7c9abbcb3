package tabula

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
)

// Param is a single bound parameter, keyed either by 1-based position or by name
type Param struct {
	// Position is the 1-based position of a positional param (zero for named params)
	Position int
	// Name is the name of a named param (empty for positional params)
	Name  string
	Value Value
}

// Positional returns true if the param is keyed by position
func (p Param) Positional() bool {
	return p.Name == ""
}

// Key returns the param key as it appears in sql - ":name" for named params or "?N" for positional params
func (p Param) Key() string {
	if p.Name == "" {
		return "?" + strconv.Itoa(p.Position)
	}
	return ":" + p.Name
}

// Params is an ordered set of bound parameters
type Params []Param

// Args creates positional params, numbered from 1
func Args(values ...any) Params {
	result := make(Params, len(values))
	for i, v := range values {
		result[i] = Param{Position: i + 1, Value: ValueOf(v)}
	}
	return result
}

// Map creates named params from a map
//
// params are ordered by name, so that compiled statements are deterministic
func Map(m map[string]any) Params {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	result := make(Params, 0, len(m))
	for _, name := range names {
		result = append(result, Param{Name: name, Value: ValueOf(m[name])})
	}
	return result
}

// Set returns params with the named param set - replacing any existing param with the same name
//
// the receiver is never modified
func (ps Params) Set(name string, v any) Params {
	if i := ps.indexOf(name); i != -1 {
		result := ps.Clone()
		result[i].Value = ValueOf(v)
		return result
	}
	return append(slices.Clip(ps), Param{Name: name, Value: ValueOf(v)})
}

// Add returns params with a positional param appended, numbered after the highest existing position
//
// the receiver is never modified
func (ps Params) Add(v any) Params {
	pos := 0
	for _, p := range ps {
		if p.Positional() && p.Position > pos {
			pos = p.Position
		}
	}
	return append(slices.Clip(ps), Param{Position: pos + 1, Value: ValueOf(v)})
}

// Get returns the value of a named param
func (ps Params) Get(name string) (Value, bool) {
	if i := ps.indexOf(name); i != -1 {
		return ps[i].Value, true
	}
	return Value{}, false
}

// At returns the value of the positional param at 1-based position pos
func (ps Params) At(pos int) (Value, bool) {
	for _, p := range ps {
		if p.Positional() && p.Position == pos {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of params
func (ps Params) Len() int {
	return len(ps)
}

// HasPositional returns true if any param is keyed by position
func (ps Params) HasPositional() bool {
	for _, p := range ps {
		if p.Positional() {
			return true
		}
	}
	return false
}

// Clone returns a copy of the params
func (ps Params) Clone() Params {
	if ps == nil {
		return nil
	}
	return append(Params{}, ps...)
}

func (ps Params) indexOf(name string) int {
	if name == "" {
		return -1
	}
	for i, p := range ps {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// validate checks that no two params share a key
func (ps Params) validate() error {
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if p.Positional() && p.Position < 1 {
			return fmt.Errorf("%w: invalid position %d", ErrParamCollision, p.Position)
		}
		k := p.Key()
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: %s", ErrParamCollision, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}
