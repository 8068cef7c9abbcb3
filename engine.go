package tabula

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Connection is the live database connection used by an Engine
//
// it is implemented by *sql.DB and *sql.Conn
type Connection interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ Connection = (*sql.DB)(nil)
	_ Connection = (*sql.Conn)(nil)
)

// TxStatus is an optional interface that a Connection can implement to report whether the
// underlying database session has a transaction open
type TxStatus interface {
	InTransaction(ctx context.Context) (bool, error)
}

// Mode is the execution mode of Engine.Run
type Mode int

const (
	// ModeFetch executes a query and materializes the rows it returns
	ModeFetch Mode = iota + 1
	// ModeExec executes a statement and records the affected row count
	ModeExec
)

func (m Mode) String() string {
	switch m {
	case ModeFetch:
		return "fetch"
	case ModeExec:
		return "exec"
	}
	return "unknown"
}

// Outcome is the result of Engine.Run
type Outcome struct {
	// Rows is the materialized rows of a fetch (always nil for exec)
	Rows    []Row
	Success bool
}

// Engine executes queries over a single live connection and tracks the transaction it has opened
//
// An Engine is not safe for concurrent use - callers needing concurrent access should use separate engines
type Engine struct {
	conn           Connection
	driver         driver
	kind           DriverKind
	tx             *sql.Tx
	inTx           bool
	queries        *QueryLog
	logger         *slog.Logger
	translator     ErrorTranslator
	scanners       Scanners
	useDecimals    bool
	limiter        Limiter
	mappings       Mappings
	exclusions     ColumnExclusions
	postProcessors []RowPostProcessor
	lastResult     sql.Result
}

// NewEngine creates a new Engine over the connection
//
// options can be any of: DriverKind, *QueryLog, *slog.Logger, ErrorTranslator, Scanners, UseDecimals, Limiter,
// Mappings, ColumnExclusions, ColumnExclusion or RowPostProcessor
//
// the DriverKind defaults to MySQL
func NewEngine(conn Connection, options ...any) (*Engine, error) {
	e := &Engine{
		conn:        conn,
		kind:        MySQL,
		translator:  defaultErrorTranslator,
		scanners:    Scanners{},
		useDecimals: true,
		limiter:     defaultLimiter,
		mappings:    Mappings{},
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case DriverKind:
				e.kind = option
			case *QueryLog:
				e.queries = option
			case *slog.Logger:
				e.logger = option
			case ErrorTranslator:
				e.translator = option
			case Scanners:
				for k, v := range option {
					e.scanners[k] = v
				}
			case UseDecimals:
				e.useDecimals = bool(option)
			case Limiter:
				e.limiter = option
			case Mappings:
				for k, v := range option {
					e.mappings[k] = v
				}
			case ColumnExclusions:
				e.exclusions = append(e.exclusions, option...)
			case ColumnExclusion:
				e.exclusions = append(e.exclusions, option)
			case RowPostProcessor:
				e.postProcessors = append(e.postProcessors, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	d, err := lookupDriver(e.kind)
	if err != nil {
		return nil, err
	}
	e.driver = d
	if e.queries == nil {
		e.queries = NewQueryLog()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e, nil
}

// MustNewEngine is the same as NewEngine, except it panics on error
func MustNewEngine(conn Connection, options ...any) *Engine {
	e, err := NewEngine(conn, options...)
	if err != nil {
		panic(err)
	}
	return e
}

// Driver returns the kind of database the engine is executing against
func (e *Engine) Driver() DriverKind {
	return e.kind
}

// Queries returns the log of every query submitted to the engine
func (e *Engine) Queries() *QueryLog {
	return e.queries
}

// Close closes the underlying connection (if it can be closed)
func (e *Engine) Close() error {
	if c, ok := e.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Run executes the query in the given mode
//
// the query is logged and marked as executed before anything else happens. On failure, the query's Failure is
// populated and a *QueryError is returned
func (e *Engine) Run(ctx context.Context, mode Mode, q *Query) (*Outcome, error) {
	return e.run(ctx, mode, q, true)
}

// run executes the query - when shape is false, fetched rows bypass mappings, exclusions and row post processors
func (e *Engine) run(ctx context.Context, mode Mode, q *Query, shape bool) (result *Outcome, err error) {
	e.queries.Append(q)
	q.executed = true
	started := time.Now()
	defer func() {
		e.logRun(ctx, mode, q, time.Since(started), err)
	}()
	text, args, err := e.bind(q)
	if err != nil {
		return nil, e.queryError(q, err)
	}
	stmt, err := e.prepare(ctx, text)
	if err != nil {
		return nil, e.queryError(q, err)
	}
	defer func() {
		_ = stmt.Close()
	}()
	switch mode {
	case ModeFetch:
		var rows []Row
		if rows, err = e.fetch(ctx, stmt, args, shape); err != nil {
			return nil, e.queryError(q, err)
		}
		q.rowCount = int64(len(rows))
		return &Outcome{Rows: rows, Success: true}, nil
	case ModeExec:
		var res sql.Result
		if res, err = stmt.ExecContext(ctx, args...); err != nil {
			return nil, e.queryError(q, err)
		}
		e.lastResult = res
		n, raErr := res.RowsAffected()
		if raErr != nil || n < 0 {
			n = 0
		}
		q.rowCount = n
		return &Outcome{Success: true}, nil
	}
	return nil, e.queryError(q, fmt.Errorf("unknown run mode: %d", mode))
}

// Fetch runs a fetch query and returns its rows
//
// args can be a single Params, a single map[string]any (named params) or positional values
func (e *Engine) Fetch(ctx context.Context, text string, args ...any) ([]Row, error) {
	out, err := e.Run(ctx, ModeFetch, NewQuery(text, toParams(args)))
	if err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// Exec runs a statement that does not return rows
//
// args can be a single Params, a single map[string]any (named params) or positional values
func (e *Engine) Exec(ctx context.Context, text string, args ...any) (bool, error) {
	out, err := e.Run(ctx, ModeExec, NewQuery(text, toParams(args)))
	if err != nil {
		return false, err
	}
	return out.Success, nil
}

// Table creates a new statement Builder for the named table
func (e *Engine) Table(name string) *Builder {
	return e.Builder().Table(name)
}

// Builder creates a new statement Builder
func (e *Engine) Builder() *Builder {
	return newBuilder(e)
}

// LastInsertID returns the id generated by the most recent exec
func (e *Engine) LastInsertID() (int64, error) {
	if e.lastResult == nil {
		return 0, &AdapterError{Op: "last insert id", Err: ErrNoInsertID}
	}
	id, err := e.lastResult.LastInsertId()
	if err != nil {
		return 0, &AdapterError{Op: "last insert id", Err: translateError(err, e.translator)}
	}
	return id, nil
}

// BeginTransaction opens a transaction - subsequent queries run within it until Commit or Rollback
func (e *Engine) BeginTransaction(ctx context.Context) error {
	if e.inTx {
		return &AdapterError{Op: "begin transaction", Err: ErrTransactionOpen}
	}
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return &AdapterError{Op: "begin transaction", Err: translateError(err, e.translator)}
	}
	e.tx = tx
	e.inTx = true
	e.logger.DebugContext(ctx, "transaction begun", "driver", e.kind.String())
	return nil
}

// Commit commits the transaction opened by BeginTransaction
func (e *Engine) Commit() error {
	return e.endTransaction("commit transaction", func(tx *sql.Tx) error {
		return tx.Commit()
	})
}

// Rollback rolls back the transaction opened by BeginTransaction
func (e *Engine) Rollback() error {
	return e.endTransaction("roll back transaction", func(tx *sql.Tx) error {
		return tx.Rollback()
	})
}

func (e *Engine) endTransaction(op string, end func(tx *sql.Tx) error) error {
	if !e.inTx || e.tx == nil {
		return &AdapterError{Op: op, Err: ErrNoTransaction}
	}
	if err := end(e.tx); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			e.clearTransaction()
		}
		return &AdapterError{Op: op, Err: translateError(err, e.translator)}
	}
	e.clearTransaction()
	e.logger.Debug("transaction ended", "op", op, "driver", e.kind.String())
	return nil
}

func (e *Engine) clearTransaction() {
	e.tx = nil
	e.inTx = false
}

// InTransaction reports whether a transaction is open
//
// a transaction opened by this engine is reported without a round-trip - otherwise, if the connection implements
// TxStatus, it is asked
func (e *Engine) InTransaction(ctx context.Context) (bool, error) {
	if e.inTx {
		return true, nil
	}
	if ts, ok := e.conn.(TxStatus); ok {
		in, err := ts.InTransaction(ctx)
		if err != nil {
			return false, &AdapterError{Op: "transaction status", Err: translateError(err, e.translator)}
		}
		return in, nil
	}
	return false, nil
}

func (e *Engine) bind(q *Query) (string, []any, error) {
	if err := q.params.validate(); err != nil {
		return "", nil, err
	}
	return rebind(q.text, q.params, e.driver.placeholder)
}

func (e *Engine) prepare(ctx context.Context, text string) (*sql.Stmt, error) {
	if e.tx != nil {
		return e.tx.PrepareContext(ctx, text)
	}
	return e.conn.PrepareContext(ctx, text)
}

func (e *Engine) fetch(ctx context.Context, stmt *sql.Stmt, args []any, shape bool) (result []Row, err error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := rows.Close(); cErr != nil && err == nil {
			result, err = nil, fmt.Errorf("%w: %w", ErrFetchFailed, cErr)
		}
	}()
	var info *columnsInfo
	if info, err = newColumnsInfo(rows, e.scanners, e.useDecimals); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	cols := info.reader()
	result = make([]Row, 0)
	rowCount := 0
	for rows.Next() {
		rowCount++
		if e.limiter.LimitReached(rowCount) {
			break
		}
		if err = rows.Scan(cols.scanArgs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		var row Row
		if !shape {
			row = cols.row()
		} else if row, err = e.mapRow(ctx, cols); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return result, nil
}

func (e *Engine) queryError(q *Query, err error) *QueryError {
	code := DriverErrorCode(err)
	err = translateError(err, e.translator)
	if code != "" {
		q.failure = "[" + code + "] " + err.Error()
	} else {
		q.failure = err.Error()
	}
	return &QueryError{
		Query: q,
		Err:   err,
		Code:  code,
	}
}

func (e *Engine) logRun(ctx context.Context, mode Mode, q *Query, took time.Duration, err error) {
	if !e.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{
		"mode", mode.String(),
		"sql", q.text,
		"params", q.params.Len(),
		"rows", q.rowCount,
		"took", took,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	e.logger.DebugContext(ctx, "query", attrs...)
}

func toParams(args []any) Params {
	if len(args) == 1 {
		switch a := args[0].(type) {
		case Params:
			return a
		case map[string]any:
			return Map(a)
		}
	}
	return Args(args...)
}
