package excel

import (
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/cell"
)

// styles caches one style id per custom number format.
type styles struct {
	mu   sync.Mutex
	file *excelize.File
	ids  map[string]int
}

func newStyles(f *excelize.File) *styles {
	return &styles{file: f, ids: make(map[string]int)}
}

func (s *styles) numFmt(format string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[format]; ok {
		return id, nil
	}
	f := format
	id, err := s.file.NewStyle(&excelize.Style{CustomNumFmt: &f})
	if err != nil {
		return 0, err
	}
	s.ids[format] = id
	return id, nil
}

// styleOf returns the explicit style of v, or one carrying its format.
func (s *styles) styleOf(v cell.Value) (int, error) {
	if v.Style != 0 || v.Format == "" {
		return v.Style, nil
	}
	return s.numFmt(v.Format)
}

func axis(row, col int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row+1)
	return name
}

func richRuns(runs []cell.RichTextRun) []excelize.RichTextRun {
	out := make([]excelize.RichTextRun, len(runs))
	for i, r := range runs {
		out[i] = excelize.RichTextRun{Text: r.Text}
		if r.Font != nil {
			out[i].Font = &excelize.Font{
				Family: r.Font.Family,
				Size:   r.Font.Size,
				Color:  strings.TrimPrefix(r.Font.Color, "#"),
				Bold:   r.Font.Bold,
				Italic: r.Font.Italic,
			}
		}
	}
	return out
}

func cellRuns(runs []excelize.RichTextRun) []cell.RichTextRun {
	out := make([]cell.RichTextRun, len(runs))
	for i, r := range runs {
		out[i] = cell.RichTextRun{Text: r.Text}
		if r.Font != nil {
			out[i].Font = &cell.Font{
				Family: r.Font.Family,
				Size:   r.Font.Size,
				Color:  r.Font.Color,
				Bold:   r.Font.Bold,
				Italic: r.Font.Italic,
			}
		}
	}
	return out
}

func pictureOf(img *cell.Image) *excelize.Picture {
	p := &excelize.Picture{Extension: img.Extension, File: img.Data, Format: &excelize.GraphicOptions{}}
	if p.Extension == "" {
		p.Extension = ".png"
	}
	if img.ScaleX > 0 {
		p.Format.ScaleX = img.ScaleX
	}
	if img.ScaleY > 0 {
		p.Format.ScaleY = img.ScaleY
	}
	return p
}
