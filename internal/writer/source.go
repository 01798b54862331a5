package writer

import (
	"context"

	"github.com/geoirb/sheetbind/internal/schema"
)

// Source produces the records of one write. Next returns false once exhausted.
type Source interface {
	Next(ctx context.Context) (rec schema.Record, ok bool, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (schema.Record, bool, error)

func (f SourceFunc) Next(ctx context.Context) (schema.Record, bool, error) { return f(ctx) }

// Records iterates over recs.
func Records(recs ...schema.Record) Source {
	i := 0
	return SourceFunc(func(context.Context) (schema.Record, bool, error) {
		if i >= len(recs) {
			return nil, false, nil
		}
		i++
		return recs[i-1], true, nil
	})
}

// Channel drains ch until it is closed or ctx is done.
func Channel(ch <-chan schema.Record) Source {
	return SourceFunc(func(ctx context.Context) (schema.Record, bool, error) {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case rec, ok := <-ch:
			return rec, ok, nil
		}
	})
}
