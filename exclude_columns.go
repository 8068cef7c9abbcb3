package tabula

// ColumnExclusion is an option that can be passed to NewEngine to omit columns from fetched rows
type ColumnExclusion interface {
	// Exclude should return true if the column (after any Mapping rename) is to be excluded
	Exclude(column string) bool
}

type ColumnExclusions []ColumnExclusion

// Exclude returns true if any of the exclusions excludes the column
func (xs ColumnExclusions) Exclude(column string) bool {
	for _, x := range xs {
		if x != nil && x.Exclude(column) {
			return true
		}
	}
	return false
}

// ConditionalExclude is a func that implements ColumnExclusion
type ConditionalExclude func(column string) bool

func (f ConditionalExclude) Exclude(column string) bool {
	return f(column)
}

// ExcludeColumns excludes the named columns
type ExcludeColumns []string

func (xc ExcludeColumns) Exclude(column string) bool {
	for _, c := range xc {
		if c == column {
			return true
		}
	}
	return false
}

// AllowedColumns excludes any column not in the map
//
// a column in the map with a non-nil ConditionalExclude is excluded if the func returns true
type AllowedColumns map[string]ConditionalExclude

var (
	_ ColumnExclusion = ColumnExclusions{}
	_ ColumnExclusion = ConditionalExclude(nil)
	_ ColumnExclusion = ExcludeColumns{}
	_ ColumnExclusion = AllowedColumns{}
)

func (xp AllowedColumns) Exclude(column string) bool {
	if cx, ok := xp[column]; ok {
		if cx != nil {
			return cx(column)
		}
		return false
	}
	return true
}
