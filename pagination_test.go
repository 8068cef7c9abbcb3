package tabula

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Paginate_NoRows(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT count(*) FROM `users` WHERE 1").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(0)))

	p, err := e.Table("users").Paginate(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, 0, p.Start)
	require.Equal(t, 50, p.Limit)
	require.Equal(t, 0, p.TotalRows)
	require.Equal(t, 0, p.TotalPages)
	require.Equal(t, 0, p.Count)
	require.NotNil(t, p.Rows)
	require.Equal(t, 0, len(p.Rows))
	require.NotNil(t, p.Pages)
	require.Equal(t, 0, len(p.Pages))
	require.NotNil(t, p.CountQuery)
	require.Nil(t, p.RowsQuery)
	require.Equal(t, 1, e.Queries().Len())
}

func TestBuilder_Paginate(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT count(*) FROM `users` WHERE 1").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow([]byte("101")))
	mock.ExpectPrepare("SELECT * FROM `users` WHERE 1 LIMIT 0,50").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	p, err := e.Table("users").Paginate(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, 101, p.TotalRows)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 2, p.Count)
	require.Equal(t, []Page{{Index: 1, Start: 0}, {Index: 2, Start: 50}, {Index: 3, Start: 100}}, p.Pages)
	require.Equal(t, "SELECT * FROM `users` WHERE 1 LIMIT 0,50", p.RowsQuery.Text())
	require.Equal(t, 2, e.Queries().Len())
}

func TestBuilder_Paginate_WhereStartLimit(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT count(*) FROM `users` WHERE `status`=?").
		ExpectQuery().
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(60)))
	mock.ExpectPrepare("SELECT `id` FROM `users` WHERE `status`=? ORDER BY `id` ASC LIMIT 50,25").
		ExpectQuery().
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(51)))

	p, err := e.Table("users").
		Select("id").
		Find(Params{}.Set("status", "active")).
		OrderAsc("id").
		Start(50).
		Limit(25).
		Paginate(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, 50, p.Start)
	require.Equal(t, 25, p.Limit)
	require.Equal(t, 60, p.TotalRows)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, []Row{{"id": int64(51)}}, p.Rows)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"start":50,"limit":25,"totalRows":60,"totalPages":3,"count":1,"rows":[{"id":51}],"pages":[{"index":1,"start":0},{"index":2,"start":25},{"index":3,"start":50}]}`, string(data))
}

func TestBuilder_Paginate_CountError(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectPrepare("SELECT count(*) FROM `users` WHERE 1").
		WillReturnError(sqlmock.ErrCancelled)

	p, err := e.Table("users").Paginate(ctx)
	require.Error(t, err)
	require.Nil(t, p)
}

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		total  int
		limit  int
		expect int
	}{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{101, 50, 3},
		{10, 0, 0},
		{-1, 10, 0},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, totalPages(tc.total, tc.limit))
	}
}

func TestScalarInt(t *testing.T) {
	require.Equal(t, 0, scalarInt(nil))
	require.Equal(t, 0, scalarInt([]Row{}))
	require.Equal(t, 7, scalarInt([]Row{{"c": int64(7)}}))
	require.Equal(t, 7, scalarInt([]Row{{"c": []byte("7")}}))
	require.Equal(t, 7, scalarInt([]Row{{"c": "7"}}))
	require.Equal(t, 7, scalarInt([]Row{{"c": decimal.New(7, 0)}}))
	require.Equal(t, 0, scalarInt([]Row{{"c": "seven"}}))
}

func TestBuilder_Paginate_RowShapingOptions(t *testing.T) {
	e, mock := newMockEngine(t,
		AllowedColumns{"id": nil, "rank": nil},
		RowPostProcessorFunc(func(ctx context.Context, row Row) error {
			row["rank"] = int64(99)
			return nil
		}),
	)
	mock.ExpectPrepare("SELECT count(*) FROM `users` WHERE 1").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(3)))
	mock.ExpectPrepare("SELECT * FROM `users` WHERE 1 LIMIT 0,50").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "secret"}).AddRow(int64(1), "x").AddRow(int64(2), "y").AddRow(int64(3), "z"))

	p, err := e.Table("users").Paginate(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, 3, p.TotalRows)
	require.Equal(t, 1, p.TotalPages)
	require.Equal(t, 3, p.Count)
	require.Equal(t, Row{"id": int64(1), "rank": int64(99)}, p.Rows[0])
}
