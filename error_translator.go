package tabula

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorTranslator is an option that can be passed to NewEngine
//
// and is called with any driver errors (before they are wrapped in a QueryError or AdapterError) so that they can be translated
//
// Is particularly useful for translating vendor errors (e.g. duplicate key) into your own errors
type ErrorTranslator interface {
	// Translate translates the passed error
	Translate(error) error
}

// ErrorTranslatorFunc is a func that implements ErrorTranslator
type ErrorTranslatorFunc func(error) error

func (f ErrorTranslatorFunc) Translate(err error) error {
	return f(err)
}

func translateError(err error, translator ErrorTranslator) error {
	if err == nil {
		return nil
	}
	if translated := translator.Translate(err); translated != nil {
		return translated
	}
	return err
}

var defaultErrorTranslator ErrorTranslator = &defErrorTranslator{}

type defErrorTranslator struct{}

func (e *defErrorTranslator) Translate(err error) error {
	return err
}

// DriverErrorCode returns the vendor error code of a driver error
//
// MySQL errors give the error number, PostgreSQL errors the SQLSTATE and SQLite errors the extended result code.
// An empty string is returned for unrecognised errors
func DriverErrorCode(err error) string {
	var myErr *mysql.MySQLError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &myErr):
		return strconv.Itoa(int(myErr.Number))
	case errors.As(err, &pqErr):
		return string(pqErr.Code)
	case errors.As(err, &liteErr):
		return strconv.Itoa(int(liteErr.ExtendedCode))
	}
	return ""
}
