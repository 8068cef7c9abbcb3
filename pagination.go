package tabula

import (
	"context"

	"github.com/spf13/cast"
)

// Pagination is one page of rows plus the page index computed from the total row count
type Pagination struct {
	Start      int    `json:"start"`
	Limit      int    `json:"limit"`
	TotalRows  int    `json:"totalRows"`
	TotalPages int    `json:"totalPages"`
	Count      int    `json:"count"`
	Rows       []Row  `json:"rows"`
	Pages      []Page `json:"pages"`
	// CountQuery is the executed count query
	CountQuery *Query `json:"-"`
	// RowsQuery is the executed page query (nil when there were no rows to fetch)
	RowsQuery *Query `json:"-"`
}

// Page is an entry in the page index
type Page struct {
	// Index is the 1-based page number
	Index int `json:"index"`
	// Start is the offset of the first row on the page
	Start int `json:"start"`
}

func newPagination(start, limit int) *Pagination {
	return &Pagination{
		Start: start,
		Limit: limit,
		Rows:  make([]Row, 0),
		Pages: make([]Page, 0),
	}
}

// Paginate counts the rows matched by the where clause and then selects one page of them
//
// start defaults to 0 and limit to 50. When the count is zero, the page query is not run
func (b *Builder) Paginate(ctx context.Context) (*Pagination, error) {
	start, limit := 0, defaultPageLimit
	if b.start != nil {
		start = *b.start
	}
	if b.limit != nil {
		limit = *b.limit
	}
	result := newPagination(start, limit)
	cq, err := b.countQuery()
	if err != nil {
		return nil, err
	}
	result.CountQuery = cq
	out, err := b.engine.run(ctx, ModeFetch, cq, false)
	if err != nil {
		return nil, err
	}
	total := scalarInt(out.Rows)
	if total <= 0 {
		return result, nil
	}
	rq, err := b.selectQuery(&start, &limit)
	if err != nil {
		return nil, err
	}
	result.RowsQuery = rq
	if out, err = b.engine.Run(ctx, ModeFetch, rq); err != nil {
		return nil, err
	}
	result.Rows = out.Rows
	result.Count = len(out.Rows)
	result.TotalRows = total
	result.TotalPages = totalPages(total, limit)
	for i := 1; i <= result.TotalPages; i++ {
		result.Pages = append(result.Pages, Page{Index: i, Start: (i - 1) * limit})
	}
	return result, nil
}

func totalPages(totalRows, limit int) int {
	if limit <= 0 || totalRows <= 0 {
		return 0
	}
	return (totalRows + limit - 1) / limit
}

// scalarInt reads the count column of the first row as an int (zero if absent or not numeric)
func scalarInt(rows []Row) int {
	if len(rows) == 0 {
		return 0
	}
	for _, v := range rows[0] {
		if n, err := cast.ToIntE(scalarValue(v)); err == nil {
			return n
		}
	}
	return 0
}

func scalarValue(v any) any {
	switch vt := v.(type) {
	case []byte:
		return string(vt)
	case interface{ IntPart() int64 }:
		return vt.IntPart()
	}
	return v
}
