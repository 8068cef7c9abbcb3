package tabula

// Query is a sql statement, its bound params and the outcome of its execution
//
// A Query is only mutated by Engine.Run - after which its row count, failure and executed flag can be inspected
type Query struct {
	text     string
	params   Params
	executed bool
	rowCount int64
	failure  string
}

// NewQuery creates a new Query
func NewQuery(text string, params Params) *Query {
	return &Query{
		text:   text,
		params: params,
	}
}

// RawQuery creates a new Query with positional params
func RawQuery(text string, args ...any) *Query {
	return NewQuery(text, Args(args...))
}

// Text returns the sql text
func (q *Query) Text() string {
	return q.text
}

// Params returns the bound params
func (q *Query) Params() Params {
	return q.params
}

// Executed returns true once the query has been submitted to an Engine (regardless of whether it succeeded)
func (q *Query) Executed() bool {
	return q.executed
}

// RowCount returns the number of rows fetched or affected
func (q *Query) RowCount() int64 {
	return q.rowCount
}

// Failure returns the error message of a failed execution (or an empty string)
func (q *Query) Failure() string {
	return q.failure
}

// Failed returns true if execution of the query failed
func (q *Query) Failed() bool {
	return q.failure != ""
}
