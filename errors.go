package tabula

import (
	"errors"
	"fmt"
)

var (
	ErrNoTable           = errors.New("no table specified")
	ErrNoColumns         = errors.New("no columns specified")
	ErrWhereRequired     = errors.New("statement requires a where clause")
	ErrPositionalKey     = errors.New("positional param not allowed")
	ErrParamCollision    = errors.New("param key collision")
	ErrMissingParam      = errors.New("missing value for param")
	ErrFetchFailed       = errors.New("fetch failed")
	ErrTransactionOpen   = errors.New("transaction already open")
	ErrNoTransaction     = errors.New("no transaction open")
	ErrNoInsertID        = errors.New("no last insert id available")
	ErrUnknownDriver     = errors.New("unknown database driver")
	ErrDriverUnavailable = errors.New("database driver not available")
)

// ConnectionError is returned when a connection to the database cannot be established
type ConnectionError struct {
	Driver DriverKind
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection (%s): %s", e.Driver, e.Err.Error())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AdapterError is returned when transaction control (or last insert id) fails
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// QueryError is returned when a specific query fails to compile, prepare, bind, execute or fetch
//
// Query is the failing query (with its Failure populated) - it is nil if the statement was rejected before it was compiled
type QueryError struct {
	Query *Query
	Err   error
	// Code is the driver error code (where the driver error is recognised)
	Code string
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return "[" + e.Code + "] " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(q *Query, err error) *QueryError {
	return &QueryError{
		Query: q,
		Err:   err,
	}
}
