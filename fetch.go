package tabula

import (
	"context"
	"encoding/json"
	"io"
)

// Fetch is the materialized result of a fetch query
//
// all rows are read when the Fetch is created, so iteration can be restarted with Rewind
type Fetch struct {
	query *Query
	rows  []Row
	index int
}

// NewFetch runs the query (in fetch mode) and materializes its rows
func NewFetch(ctx context.Context, e *Engine, q *Query) (*Fetch, error) {
	out, err := e.Run(ctx, ModeFetch, q)
	if err != nil {
		return nil, err
	}
	return &Fetch{
		query: q,
		rows:  out.Rows,
	}, nil
}

// Query returns the executed query
func (f *Fetch) Query() *Query {
	return f.query
}

// Count returns the number of rows
func (f *Fetch) Count() int {
	return len(f.rows)
}

// First returns the first row (or nil if there are no rows)
func (f *Fetch) First() Row {
	return f.at(0)
}

// Last returns the last row (or nil if there are no rows)
func (f *Fetch) Last() Row {
	return f.at(len(f.rows) - 1)
}

// All returns all the rows
func (f *Fetch) All() []Row {
	return f.rows
}

// Rewind resets iteration to the first row
func (f *Fetch) Rewind() {
	f.index = 0
}

// Current returns the row at the current position (or nil if the position is not valid)
func (f *Fetch) Current() Row {
	return f.at(f.index)
}

// Key returns the current position
func (f *Fetch) Key() int {
	return f.index
}

// Next advances to the next row
func (f *Fetch) Next() {
	f.index++
}

// Valid returns true if the current position holds a row
func (f *Fetch) Valid() bool {
	return f.index >= 0 && f.index < len(f.rows)
}

// WriteJSON writes the rows as a JSON array
func (f *Fetch) WriteJSON(writer io.Writer) (err error) {
	if _, err = writer.Write([]byte("[")); err == nil {
		jw := json.NewEncoder(writer)
		for i, row := range f.rows {
			if i > 0 {
				if _, err = writer.Write([]byte(",")); err != nil {
					return err
				}
			}
			if err = jw.Encode(row); err != nil {
				return err
			}
		}
		_, err = writer.Write([]byte("]"))
	}
	return err
}

func (f *Fetch) at(i int) Row {
	if i < 0 || i >= len(f.rows) {
		return nil
	}
	return f.rows[i]
}
