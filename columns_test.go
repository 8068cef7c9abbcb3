package tabula

import (
	"database/sql"
	"fmt"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewColumnsInfo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c"}).AddRow(
		"a value",
		int64(16),
		float64(16)))
	rows, err := db.QueryContext(ctx, "SELECT a,b,c FROM `table`")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	defer func() {
		_ = rows.Close()
	}()

	info, err := newColumnsInfo(rows, nil, true)
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, 3, info.count)
	require.Equal(t, []string{"a", "b", "c"}, info.names)
	require.True(t, info.useDecimals)
}

func TestColumnsInfo_Reader_CustomScanner(t *testing.T) {
	ci := &columnsInfo{
		count: 1,
		names: []string{"a"},
		scanners: Scanners{
			"a": func(src any) (value any, err error) {
				return src, nil
			},
		},
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &customColumnScanner{}, r.scanArgs[0])

	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan("foo")
	require.NoError(t, err)
	require.Equal(t, "foo", r.values[0])
}

func TestColumnsInfo_Reader_Json(t *testing.T) {
	ci := &columnsInfo{
		count:   1,
		names:   []string{"a"},
		dbTypes: []string{"JSON"},
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &jsonColumnScanner{}, r.scanArgs[0])

	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan(`{"foo":"bar"}`)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"foo": "bar"}, r.values[0])
	err = s.Scan(`{not valid json}`)
	require.Error(t, err)
	err = s.Scan([]byte(`["foo"]`))
	require.NoError(t, err)
	require.Equal(t, []any{"foo"}, r.values[0])
	err = s.Scan([]byte(`[not valid json]`))
	require.Error(t, err)
	err = s.Scan(nil)
	require.NoError(t, err)
	require.Equal(t, nil, r.values[0])

}

func TestColumnsInfo_Reader_Decimal(t *testing.T) {
	ci := &columnsInfo{
		count:       1,
		names:       []string{"a"},
		dbTypes:     []string{"DECIMAL"},
		useDecimals: true,
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &decimalColumnScanner{}, r.scanArgs[0])

	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan(16.1)
	require.NoError(t, err)
	require.Equal(t, "16.1", r.values[0].(decimal.Decimal).String())
	err = s.Scan(float32(20.5))
	require.NoError(t, err)
	require.Equal(t, "20.5", r.values[0].(decimal.Decimal).String())
	err = s.Scan(int64(20))
	require.NoError(t, err)
	require.Equal(t, "20", r.values[0].(decimal.Decimal).String())
	err = s.Scan(`30.5`)
	require.NoError(t, err)
	require.Equal(t, "30.5", r.values[0].(decimal.Decimal).String())
	err = s.Scan(`"40.5"`)
	require.NoError(t, err)
	require.Equal(t, "40.5", r.values[0].(decimal.Decimal).String())
	err = s.Scan([]byte(`50.5`))
	require.NoError(t, err)
	require.Equal(t, "50.5", r.values[0].(decimal.Decimal).String())
	err = s.Scan([]byte(`"60.5"`))
	require.NoError(t, err)
	require.Equal(t, "60.5", r.values[0].(decimal.Decimal).String())
	err = s.Scan(nil)
	require.NoError(t, err)
	require.Nil(t, r.values[0])
}

func TestColumnsInfo_Reader_String(t *testing.T) {
	ci := &columnsInfo{
		count:     1,
		names:     []string{"a"},
		dbTypes:   []string{""},
		scanTypes: []reflect.Type{reflect.TypeOf(sql.NullString{})},
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &stringColumnScanner{}, r.scanArgs[0])

	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan("foo")
	require.NoError(t, err)
	require.Equal(t, "foo", r.values[0])
	err = s.Scan([]byte("bar"))
	require.NoError(t, err)
	require.Equal(t, "bar", r.values[0])
}

func TestColumnsInfo_Reader_Float(t *testing.T) {
	ci := &columnsInfo{
		count:       1,
		names:       []string{"a"},
		dbTypes:     []string{""},
		scanTypes:   []reflect.Type{reflect.TypeOf(1.0)},
		useDecimals: true,
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &decimalColumnScanner{}, r.scanArgs[0])
}

func TestColumnsInfo_Reader_Raw(t *testing.T) {
	ci := &columnsInfo{
		count:     1,
		names:     []string{"a"},
		dbTypes:   []string{""},
		scanTypes: []reflect.Type{reflect.TypeOf(1)},
	}
	r := ci.reader()
	require.NotNil(t, r)
	require.Equal(t, 1, r.count)
	require.Equal(t, 1, len(r.names))
	require.Equal(t, 1, len(r.scanArgs))
	require.Equal(t, 1, len(r.values))
	require.IsType(t, &rawColumnScanner{}, r.scanArgs[0])

	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan(16)
	require.NoError(t, err)
	require.Equal(t, 16, r.values[0])
}

func TestColumnsInfo_Reader_NoDecimals(t *testing.T) {
	ci := &columnsInfo{
		count:     2,
		names:     []string{"a", "b"},
		dbTypes:   []string{"DECIMAL", ""},
		scanTypes: []reflect.Type{nil, reflect.TypeOf(1.0)},
	}
	r := ci.reader()
	require.IsType(t, &rawColumnScanner{}, r.scanArgs[0])
	require.IsType(t, &rawColumnScanner{}, r.scanArgs[1])

	s := r.scanArgs[1].(sql.Scanner)
	err := s.Scan(16.5)
	require.NoError(t, err)
	require.Equal(t, 16.5, r.values[1])
}

func TestColumnsInfo_Reader_RawBytesCopied(t *testing.T) {
	ci := &columnsInfo{
		count: 1,
		names: []string{"a"},
	}
	r := ci.reader()
	require.IsType(t, &rawColumnScanner{}, r.scanArgs[0])

	buf := []byte("abc")
	s := r.scanArgs[0].(sql.Scanner)
	err := s.Scan(buf)
	require.NoError(t, err)
	buf[0] = 'x'
	require.Equal(t, []byte("abc"), r.values[0])
}

func TestColumnsReader_Row(t *testing.T) {
	ci := &columnsInfo{
		count: 2,
		names: []string{"a", "b"},
	}
	r := ci.reader()
	require.NoError(t, r.scanArgs[0].(sql.Scanner).Scan("a value"))
	require.NoError(t, r.scanArgs[1].(sql.Scanner).Scan(int64(16)))
	row := r.row()
	require.Equal(t, Row{"a": "a value", "b": int64(16)}, row)

	require.NoError(t, r.scanArgs[0].(sql.Scanner).Scan("changed"))
	require.Equal(t, "a value", row["a"])
}

func TestBoolColumn(t *testing.T) {
	testCases := []struct {
		src       any
		expect    any
		expectErr bool
	}{
		{src: true, expect: true},
		{src: int64(1), expect: true},
		{src: int64(0), expect: false},
		{src: float64(1), expect: true},
		{src: []byte("true"), expect: true},
		{src: "false", expect: false},
		{src: nil, expect: false},
		{src: "not a bool", expectErr: true},
		{src: struct{}{}, expectErr: true},
	}
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("[%d]", i+1), func(t *testing.T) {
			v, err := BoolColumn(tc.src)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.expect, v)
			}
		})
	}
}
