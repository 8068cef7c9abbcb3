package tabula

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is a fetched row, keyed by column name
type Row map[string]any

// ColumnScanner is a func that can be used (via Scanners) to read the value of a column
type ColumnScanner func(src any) (value any, err error)

// Scanners is an option that can be passed to NewEngine - a map of ColumnScanner by column name
type Scanners map[string]ColumnScanner

// UseDecimals is an option that determines whether float/numeric/decimal columns should be read as decimal.Decimal values
//
// by default, Engine will convert float/numeric/decimal columns to decimal.Decimal
type UseDecimals bool

// BoolColumn is a ColumnScanner that can be used to convert a column to a boolean value
//
// Particularly useful for MySql which only supports BOOL columns as TINYINT
func BoolColumn(src any) (any, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	case nil:
		return false, nil
	}
	return nil, fmt.Errorf("type %T is not a bool", src)
}

type columnsInfo struct {
	count       int
	names       []string
	scanTypes   []reflect.Type
	dbTypes     []string
	scanners    Scanners
	useDecimals bool
}

type columnsReader struct {
	count    int
	names    []string
	values   []any
	scanArgs []any
}

func newColumnsInfo(rows *sql.Rows, scanners Scanners, useDecimals bool) (result *columnsInfo, err error) {
	var cts []*sql.ColumnType
	if cts, err = rows.ColumnTypes(); err == nil {
		count := len(cts)
		result = &columnsInfo{
			count:       count,
			names:       make([]string, count),
			scanTypes:   make([]reflect.Type, count),
			dbTypes:     make([]string, count),
			scanners:    scanners,
			useDecimals: useDecimals,
		}
		for i, ct := range cts {
			result.names[i] = ct.Name()
			result.scanTypes[i] = ct.ScanType()
			result.dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
		}
	}
	return result, err
}

func (ci *columnsInfo) reader() *columnsReader {
	r := &columnsReader{
		count:    ci.count,
		values:   make([]any, ci.count),
		scanArgs: make([]any, ci.count),
		names:    ci.names,
	}
	for i := 0; i < ci.count; i++ {
		r.scanArgs[i] = ci.buildScanner(r, i)
	}
	return r
}

func (ci *columnsInfo) buildScanner(cr *columnsReader, index int) sql.Scanner {
	if s, ok := ci.scanners[ci.names[index]]; ok && s != nil {
		return &customColumnScanner{
			columns: cr,
			index:   index,
			scanner: s,
		}
	}
	dbType := ""
	if index < len(ci.dbTypes) {
		dbType = ci.dbTypes[index]
	}
	switch dbType {
	case "JSON", "JSONB":
		return &jsonColumnScanner{
			columns: cr,
			index:   index,
		}
	case "DECIMAL", "FLOAT", "DOUBLE", "NUMERIC", "REAL":
		if ci.useDecimals {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	default:
		if ci.useDecimals && strings.HasPrefix(dbType, "FLOAT") {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	}
	if index < len(ci.scanTypes) && ci.scanTypes[index] != nil {
		v := reflect.New(ci.scanTypes[index]).Interface()
		switch v.(type) {
		case *string, *sql.NullString, *sql.RawBytes:
			return &stringColumnScanner{
				columns: cr,
				index:   index,
			}
		case *float32, *float64, *sql.NullFloat64:
			if ci.useDecimals {
				return &decimalColumnScanner{
					columns: cr,
					index:   index,
				}
			}
		}
	}
	return &rawColumnScanner{
		columns: cr,
		index:   index,
	}
}

// row copies the scanned values into a new Row, keyed by column name
func (cr *columnsReader) row() Row {
	result := make(Row, cr.count)
	for i, name := range cr.names {
		result[name] = cr.values[i]
	}
	return result
}

type customColumnScanner struct {
	columns *columnsReader
	index   int
	scanner ColumnScanner
}

func (c *customColumnScanner) Scan(src any) error {
	v, err := c.scanner(src)
	if err == nil {
		c.columns.values[c.index] = v
	}
	return err
}

type rawColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *rawColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		// driver owned buffers must not be retained
		c.columns.values[c.index] = append([]byte{}, v...)
	default:
		c.columns.values[c.index] = src
	}
	return nil
}

type stringColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *stringColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		c.columns.values[c.index] = string(v)
	default:
		c.columns.values[c.index] = v
	}
	return nil
}

type decimalColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *decimalColumnScanner) Scan(src any) error {
	var err error
	switch v := src.(type) {
	case float32:
		c.columns.values[c.index] = decimal.NewFromFloat(float64(v))
	case float64:
		c.columns.values[c.index] = decimal.NewFromFloat(v)
	case int64:
		c.columns.values[c.index] = decimal.New(v, 0)
	case []byte:
		if len(v) > 2 && v[0] == '"' && v[len(v)-1] == '"' {
			c.columns.values[c.index], err = decimal.NewFromString(string(v[1 : len(v)-1]))
		} else {
			c.columns.values[c.index], err = decimal.NewFromString(string(v))
		}
	case string:
		if len(v) > 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			c.columns.values[c.index], err = decimal.NewFromString(v[1 : len(v)-1])
		} else {
			c.columns.values[c.index], err = decimal.NewFromString(v)
		}
	default:
		c.columns.values[c.index] = src
	}
	return err
}

type jsonColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *jsonColumnScanner) Scan(src any) error {
	var err error
	switch data := src.(type) {
	case []byte:
		var v any
		if err = json.Unmarshal(data, &v); err == nil {
			c.columns.values[c.index] = v
		}
	case string:
		var v any
		if err = json.Unmarshal([]byte(data), &v); err == nil {
			c.columns.values[c.index] = v
		}
	default:
		c.columns.values[c.index] = src
	}
	return err
}
