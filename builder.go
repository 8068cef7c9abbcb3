package tabula

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	// noRestriction is the where clause used until Where or Find is called
	noRestriction = "1"
	// wherePrefix is prepended to where clause param names when they are merged with update values
	wherePrefix = "__"

	defaultPageLimit = 50
)

// Builder builds and executes a single INSERT, UPDATE, DELETE or SELECT statement
//
// setters mutate and return the same builder - a builder should be discarded after its terminal call
// (Insert, Update, Delete, Fetch or Paginate)
type Builder struct {
	engine      *Engine
	table       string
	where       string
	whereParams Params
	columns     string
	order       string
	lock        bool
	start       *int
	limit       *int
}

func newBuilder(e *Engine) *Builder {
	return &Builder{
		engine:  e,
		where:   noRestriction,
		columns: "*",
	}
}

// Table sets the target table
func (b *Builder) Table(name string) *Builder {
	b.table = strings.TrimSpace(name)
	return b
}

// Where sets the where clause and its params - replacing any previous where clause and params
func (b *Builder) Where(clause string, params Params) *Builder {
	b.where = clause
	b.whereParams = params.Clone()
	return b
}

// Find sets an equality where clause (each column AND'ed) from named params
//
// positional params are skipped
func (b *Builder) Find(match Params) *Builder {
	conditions := make([]string, 0, len(match))
	params := make(Params, 0, len(match))
	names := placeholderNames{}
	for _, p := range match {
		if p.Positional() {
			continue
		}
		ph := names.next(p.Name)
		conditions = append(conditions, quoteIdentifier(p.Name)+"=:"+ph)
		params = append(params, Param{Name: ph, Value: p.Value})
	}
	if len(conditions) == 0 {
		return b.Where(noRestriction, nil)
	}
	return b.Where(strings.Join(conditions, " AND "), params)
}

// Columns sets the columns to select
//
// each column is backtick quoted - unless it contains parentheses, in which case it is treated as an expression
func (b *Builder) Columns(columns ...string) *Builder {
	quoted := make([]string, 0, len(columns))
	for _, col := range columns {
		col = strings.TrimSpace(col)
		if strings.ContainsAny(col, "()") {
			quoted = append(quoted, col)
		} else {
			quoted = append(quoted, quoteIdentifier(col))
		}
	}
	if len(quoted) == 0 {
		b.columns = "*"
	} else {
		b.columns = strings.Join(quoted, ",")
	}
	return b
}

// Select is an alias for Columns
func (b *Builder) Select(columns ...string) *Builder {
	return b.Columns(columns...)
}

// OrderAsc orders the selected rows by the columns, ascending
func (b *Builder) OrderAsc(columns ...string) *Builder {
	return b.orderBy("ASC", columns)
}

// OrderDesc orders the selected rows by the columns, descending
func (b *Builder) OrderDesc(columns ...string) *Builder {
	return b.orderBy("DESC", columns)
}

func (b *Builder) orderBy(direction string, columns []string) *Builder {
	if len(columns) == 0 {
		b.order = ""
		return b
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(strings.TrimSpace(col))
	}
	b.order = "ORDER BY " + strings.Join(quoted, ",") + " " + direction
	return b
}

// Start sets the offset of the first selected row
func (b *Builder) Start(start int) *Builder {
	b.start = &start
	return b
}

// Limit sets the maximum number of selected rows
func (b *Builder) Limit(limit int) *Builder {
	b.limit = &limit
	return b
}

// Lock marks the select as row locking (FOR UPDATE)
func (b *Builder) Lock() *Builder {
	b.lock = true
	return b
}

// Insert inserts a row from named params (the param names being the column names) and returns the affected row count
func (b *Builder) Insert(ctx context.Context, values Params) (int64, error) {
	q, err := b.insertQuery(values)
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, q)
}

// Update updates the rows matched by the where clause from named params (the param names being the column names)
// and returns the affected row count
//
// the where clause must have been set (Where or Find) and its params must be named
func (b *Builder) Update(ctx context.Context, values Params) (int64, error) {
	q, err := b.updateQuery(values)
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, q)
}

// Delete deletes the rows matched by the where clause and returns the affected row count
//
// the where clause must have been set (Where or Find)
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	q, err := b.deleteQuery()
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, q)
}

// Fetch selects the rows
func (b *Builder) Fetch(ctx context.Context) (*Fetch, error) {
	q, err := b.selectQuery(b.start, b.limit)
	if err != nil {
		return nil, err
	}
	return NewFetch(ctx, b.engine, q)
}

func (b *Builder) exec(ctx context.Context, q *Query) (int64, error) {
	out, err := b.engine.Run(ctx, ModeExec, q)
	if err != nil {
		return 0, err
	}
	if !out.Success {
		return 0, nil
	}
	return q.RowCount(), nil
}

func (b *Builder) insertQuery(values Params) (*Query, error) {
	if b.table == "" {
		return nil, newQueryError(nil, ErrNoTable)
	}
	if len(values) == 0 {
		return nil, newQueryError(nil, ErrNoColumns)
	}
	cols := make([]string, len(values))
	markers := make([]string, len(values))
	params := make(Params, len(values))
	names := placeholderNames{}
	for i, p := range values {
		if p.Positional() {
			return nil, newQueryError(nil, fmt.Errorf("%w: insert values must be named (%s)", ErrPositionalKey, p.Key()))
		}
		ph := names.next(p.Name)
		cols[i] = quoteIdentifier(p.Name)
		markers[i] = ":" + ph
		params[i] = Param{Name: ph, Value: p.Value}
	}
	text := "INSERT INTO " + quoteIdentifier(b.table) + " (" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(markers, ",") + ")"
	return NewQuery(text, params), nil
}

func (b *Builder) updateQuery(values Params) (*Query, error) {
	if b.table == "" {
		return nil, newQueryError(nil, ErrNoTable)
	}
	if b.where == noRestriction {
		return nil, newQueryError(nil, fmt.Errorf("%w: refusing UPDATE without WHERE", ErrWhereRequired))
	}
	if len(values) == 0 {
		return nil, newQueryError(nil, ErrNoColumns)
	}
	sets := make([]string, len(values))
	params := make(Params, 0, len(values)+len(b.whereParams))
	names := placeholderNames{}
	for i, p := range values {
		if p.Positional() {
			return nil, newQueryError(nil, fmt.Errorf("%w: update values must be named (%s)", ErrPositionalKey, p.Key()))
		}
		ph := names.next(p.Name)
		sets[i] = quoteIdentifier(p.Name) + "=:" + ph
		params = append(params, Param{Name: ph, Value: p.Value})
	}
	where, err := prefixPlaceholders(b.where, wherePrefix)
	if err != nil {
		return nil, newQueryError(nil, err)
	}
	for _, p := range b.whereParams {
		if p.Positional() {
			return nil, newQueryError(nil, fmt.Errorf("%w: where params must be named to be merged into UPDATE (%s)", ErrPositionalKey, p.Key()))
		}
		name := wherePrefix + p.Name
		if _, exists := params.Get(name); exists {
			return nil, newQueryError(nil, fmt.Errorf("%w: :%s", ErrParamCollision, name))
		}
		params = append(params, Param{Name: name, Value: p.Value})
	}
	text := "UPDATE " + quoteIdentifier(b.table) + " SET " + strings.Join(sets, ",") + " WHERE " + where
	return NewQuery(text, params), nil
}

func (b *Builder) deleteQuery() (*Query, error) {
	if b.table == "" {
		return nil, newQueryError(nil, ErrNoTable)
	}
	if b.where == noRestriction {
		return nil, newQueryError(nil, fmt.Errorf("%w: refusing DELETE without WHERE", ErrWhereRequired))
	}
	text := "DELETE FROM " + quoteIdentifier(b.table) + " WHERE " + b.where
	return NewQuery(text, b.whereParams.Clone()), nil
}

// selectQuery compiles the select - a LIMIT clause is only added when limit is set
func (b *Builder) selectQuery(start *int, limit *int) (*Query, error) {
	if b.table == "" {
		return nil, newQueryError(nil, ErrNoTable)
	}
	var sb strings.Builder
	sb.WriteString("SELECT " + b.columns + " FROM " + quoteIdentifier(b.table) + " WHERE " + b.where)
	if b.order != "" {
		sb.WriteString(" " + b.order)
	}
	if limit != nil {
		if start != nil {
			sb.WriteString(" LIMIT " + strconv.Itoa(*start) + "," + strconv.Itoa(*limit))
		} else {
			sb.WriteString(" LIMIT " + strconv.Itoa(*limit))
		}
	}
	if b.lock {
		sb.WriteString(" FOR UPDATE")
	}
	return NewQuery(sb.String(), b.whereParams.Clone()), nil
}

func (b *Builder) countQuery() (*Query, error) {
	if b.table == "" {
		return nil, newQueryError(nil, ErrNoTable)
	}
	text := "SELECT count(*) FROM " + quoteIdentifier(b.table) + " WHERE " + b.where
	return NewQuery(text, b.whereParams.Clone()), nil
}

// placeholderNames derives bindable placeholder names from column names
//
// runes that cannot appear in a placeholder are replaced with '_' and repeated names get a numeric suffix
type placeholderNames map[string]struct{}

func (pn placeholderNames) next(column string) string {
	name := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, column)
	if name == "" {
		name = "p"
	}
	candidate := name
	for n := 2; ; n++ {
		if _, taken := pn[candidate]; !taken {
			break
		}
		candidate = name + "_" + strconv.Itoa(n)
	}
	pn[candidate] = struct{}{}
	return candidate
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
