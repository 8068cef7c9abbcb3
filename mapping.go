package tabula

import "context"

// Mapping determines how a fetched column is placed into a Row
type Mapping struct {
	// PropertyName is the row key to use (if not an empty string) - overrides the column name
	PropertyName string
	// OmitNull indicates that if the column is null then the key is not added to the row (this is not overridden by specifying a value for NullDefault)
	OmitNull bool
	// NullDefault is the value to use when the column is null
	NullDefault any
}

// Mappings is an option that can be passed to NewEngine - a map of Mapping by column name
type Mappings map[string]Mapping

// mapRow builds a Row from the scanned column values, applying mappings, exclusions and row post processors
func (e *Engine) mapRow(ctx context.Context, cols *columnsReader) (Row, error) {
	row := make(Row, cols.count)
	for i, name := range cols.names {
		value := cols.values[i]
		if mp, ok := e.mappings[name]; ok {
			if value == nil {
				if mp.OmitNull {
					continue
				} else if mp.NullDefault != nil {
					value = mp.NullDefault
				}
			}
			if mp.PropertyName != "" {
				name = mp.PropertyName
			}
		}
		if e.exclusions.Exclude(name) {
			continue
		}
		row[name] = value
	}
	for _, rp := range e.postProcessors {
		if err := rp.PostProcess(ctx, row); err != nil {
			return nil, err
		}
	}
	return row, nil
}
