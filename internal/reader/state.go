package reader

import (
	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

type state int

const (
	stateIdle state = iota
	stateHead
	stateData
	stateDone
	stateError
)

var stateNames = [...]string{"idle", "head", "data", "done", "error"}

func (s state) String() string { return stateNames[s] }

// sheetState walks one sheet: head rows first, then data rows.
type sheetState struct {
	ctx   *handler.SheetContext
	state state

	headRows int
	declared *schema.Schema
	resolved *schema.Schema
	head     map[int]string

	schema *schema.Schema
	// lettered sheets have neither header nor shape: columns are named by letter.
	lettered bool
}

func newSheetState(ctx *handler.SheetContext, opts Options, resolved *schema.Schema) *sheetState {
	return &sheetState{
		ctx:      ctx,
		headRows: opts.HeadRows,
		declared: opts.Schema,
		resolved: resolved,
		head:     make(map[int]string),
	}
}

// next moves the state machine on row and reports whether row carries data.
func (s *sheetState) next(row cell.Row) (data bool, err error) {
	switch s.state {
	case stateIdle:
		s.state = stateData
		if s.headRows > 0 {
			s.state = stateHead
		}
		return s.next(row)
	case stateHead:
		if row.Index < s.headRows {
			s.collect(row)
			return false, nil
		}
		if err = s.bind(); err != nil {
			s.state = stateError
			return
		}
		s.state = stateData
		return true, nil
	case stateData:
		if s.schema == nil {
			if err = s.bind(); err != nil {
				s.state = stateError
				return
			}
		}
		return true, nil
	}
	return false, nil
}

// finish closes the sheet, binding the schema of a sheet holding only head rows.
func (s *sheetState) finish() error {
	if s.state == stateHead {
		if err := s.bind(); err != nil {
			s.state = stateError
			return err
		}
	}
	s.state = stateDone
	return nil
}

// collect keeps the titles of the last head row.
func (s *sheetState) collect(row cell.Row) {
	if row.Index != s.headRows-1 {
		return
	}
	for _, e := range row.Cells {
		s.head[e.Col] = e.Value.PlainText()
	}
}

// bind fixes the schema of the sheet: a declared schema as is, a resolved
// one rebound to the header titles, or a dynamic one built from them.
func (s *sheetState) bind() (err error) {
	switch {
	case s.declared != nil:
		s.schema = s.declared
	case s.resolved != nil && s.headRows > 0:
		var missing []string
		if s.schema, missing, err = s.resolved.Rebind(s.head); err != nil {
			return sheeterr.Locate(err, sheeterr.Schema, s.ctx.Sheet, s.headRows-1, -1, "")
		}
		for _, name := range missing {
			s.ctx.Warn(s.headRows-1, -1, "field %q has no column in the header", name)
		}
	case s.resolved != nil:
		s.schema = s.resolved
	default:
		s.schema = schema.Dynamic(s.head)
		s.lettered = s.headRows == 0
	}
	return nil
}

// schemaFor returns the schema used to assemble row.
func (s *sheetState) schemaFor(row cell.Row) *schema.Schema {
	if !s.lettered {
		return s.schema
	}
	head := make(map[int]string, row.Len())
	for _, e := range row.Cells {
		head[e.Col] = ""
	}
	return schema.Dynamic(head)
}
