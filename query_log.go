package tabula

// QueryLog is an ordered, append-only record of every Query submitted to an Engine
//
// A QueryLog is not safe for concurrent use - as with the Engine that owns it
type QueryLog struct {
	queries  []*Query
	position int
}

// NewQueryLog creates a new, empty QueryLog
func NewQueryLog() *QueryLog {
	return &QueryLog{
		queries: make([]*Query, 0),
	}
}

// Append adds a query to the log
func (l *QueryLog) Append(q *Query) *QueryLog {
	l.queries = append(l.queries, q)
	return l
}

// Len returns the number of logged queries
func (l *QueryLog) Len() int {
	return len(l.queries)
}

// All returns a copy of all logged queries, in submission order
func (l *QueryLog) All() []*Query {
	return append([]*Query{}, l.queries...)
}

// At returns the query at index i (or nil if out of range)
func (l *QueryLog) At(i int) *Query {
	if i < 0 || i >= len(l.queries) {
		return nil
	}
	return l.queries[i]
}

// Last returns the most recently logged query (or nil if nothing has been logged)
func (l *QueryLog) Last() *Query {
	return l.At(len(l.queries) - 1)
}

// Rewind resets the log cursor to the first query
func (l *QueryLog) Rewind() {
	l.position = 0
}

// Current returns the query at the cursor (or nil if the cursor is not valid)
func (l *QueryLog) Current() *Query {
	return l.At(l.position)
}

// Key returns the cursor position
func (l *QueryLog) Key() int {
	return l.position
}

// Next advances the cursor
func (l *QueryLog) Next() {
	l.position++
}

// Valid returns true if the cursor is on a logged query
func (l *QueryLog) Valid() bool {
	return l.position >= 0 && l.position < len(l.queries)
}
