package tabula

import (
	"context"
)

// RowPostProcessor is an option that can be passed to NewEngine
//
// each RowPostProcessor is called, in the order given, with every fetched row (after mappings and exclusions) and
// may modify the row. An error fails the fetch
type RowPostProcessor interface {
	PostProcess(ctx context.Context, row Row) error
}

// RowPostProcessorFunc is a func that implements RowPostProcessor
type RowPostProcessorFunc func(ctx context.Context, row Row) error

func (f RowPostProcessorFunc) PostProcess(ctx context.Context, row Row) error {
	return f(ctx, row)
}
