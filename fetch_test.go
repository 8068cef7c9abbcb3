package tabula

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestNewFetch(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT a FROM t").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow("1").AddRow("2").AddRow("3"))

	q := RawQuery("SELECT a FROM t")
	f, err := NewFetch(ctx, e, q)
	require.NoError(t, err)
	require.Same(t, q, f.Query())
	require.Equal(t, 3, f.Count())
	require.Equal(t, Row{"a": "1"}, f.First())
	require.Equal(t, Row{"a": "3"}, f.Last())
	require.Equal(t, 3, len(f.All()))

	collected := make([]any, 0)
	for f.Rewind(); f.Valid(); f.Next() {
		require.Equal(t, len(collected), f.Key())
		collected = append(collected, f.Current()["a"])
	}
	require.Equal(t, []any{"1", "2", "3"}, collected)
	require.Nil(t, f.Current())

	f.Rewind()
	require.True(t, f.Valid())
	require.Equal(t, 0, f.Key())
	require.Equal(t, Row{"a": "1"}, f.Current())
}

func TestNewFetch_Error(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT a FROM t").WillReturnError(errors.New("syntax"))

	f, err := NewFetch(ctx, e, RawQuery("SELECT a FROM t"))
	require.Error(t, err)
	require.Nil(t, f)
}

func TestFetch_Empty(t *testing.T) {
	f := &Fetch{rows: []Row{}}
	require.Equal(t, 0, f.Count())
	require.Nil(t, f.First())
	require.Nil(t, f.Last())
	require.Nil(t, f.Current())
	require.False(t, f.Valid())
	f.Next()
	require.False(t, f.Valid())

	var buf bytes.Buffer
	require.NoError(t, f.WriteJSON(&buf))
	require.Equal(t, "[]", buf.String())
}

func TestFetch_WriteJSON(t *testing.T) {
	f := &Fetch{rows: []Row{
		{"id": int64(1), "name": "bilbo"},
		{"id": int64(2), "name": nil},
	}}
	var buf bytes.Buffer
	require.NoError(t, f.WriteJSON(&buf))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, []map[string]any{
		{"id": float64(1), "name": "bilbo"},
		{"id": float64(2), "name": nil},
	}, decoded)
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("write failed")
	}
	w.after--
	return len(p), nil
}

func TestFetch_WriteJSON_WriterErrors(t *testing.T) {
	f := &Fetch{rows: []Row{{"a": 1}, {"a": 2}}}
	for after := 0; after < 4; after++ {
		err := f.WriteJSON(&failingWriter{after: after})
		require.Error(t, err)
		require.Equal(t, "write failed", err.Error())
	}
	require.NoError(t, f.WriteJSON(&failingWriter{after: 5}))
}
