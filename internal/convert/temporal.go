package convert

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/cell"
)

// Canonical layouts chosen by InferLayout from the input length.
const (
	layoutDate        = "2006-01-02"
	layoutCompact     = "20060102150405"
	layoutMinute      = "2006-01-02 15:04"
	layoutMinuteSlash = "2006/01/02 15:04"
	layoutSecond      = "2006-01-02 15:04:05"
	layoutSecondSlash = "2006/01/02 15:04:05"
)

// InferLayout picks a layout for a date string without a declared pattern.
// Only lengths 10, 14, 16 and 19 are recognised.
func InferLayout(s string) (string, error) {
	switch len(s) {
	case 19:
		if strings.Contains(s, "-") {
			return layoutSecond, nil
		}
		return layoutSecondSlash, nil
	case 16:
		if strings.Contains(s, "-") {
			return layoutMinute, nil
		}
		return layoutMinuteSlash, nil
	case 14:
		return layoutCompact, nil
	case 10:
		return layoutDate, nil
	}
	return "", conversionf("cannot infer date format for %q", s)
}

var patternTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"E", "Mon"},
	{"a", "PM"},
	{"XXX", "-07:00"},
	{"Z", "-0700"},
}

// Layout translates a date pattern (yyyy-MM-dd HH:mm:ss, quotes for literals)
// into a Go layout. Patterns already written as Go layouts pass through.
func Layout(pattern string) string {
	if strings.Contains(pattern, "2006") {
		return pattern
	}
	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		if c == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				b.WriteString(pattern[i+1:])
				break
			}
			if end == 0 {
				b.WriteByte('\'')
			} else {
				b.WriteString(pattern[i+1 : i+1+end])
			}
			i += end + 2
			continue
		}
		matched := false
		for _, t := range patternTokens {
			if strings.HasPrefix(pattern[i:], t.token) {
				b.WriteString(t.layout)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// ExcelNumFmt turns a date pattern into a spreadsheet number format code.
func ExcelNumFmt(pattern string) string {
	r := strings.NewReplacer("EEEE", "dddd", "EEE", "ddd", "SSS", "000", "HH", "hh", "a", "AM/PM", "'", "\"")
	return r.Replace(pattern)
}

func (r *Registry) layout(pattern string) string {
	if l, ok := r.layouts.Load(pattern); ok {
		return l.(string)
	}
	l := Layout(pattern)
	r.layouts.Store(pattern, l)
	return l
}

// mondayLocale maps de-DE to de_DE; English needs no translation.
func mondayLocale(locale string) (monday.Locale, bool) {
	if locale == "" || strings.HasPrefix(strings.ToLower(locale), "en") {
		return "", false
	}
	return monday.Locale(strings.ReplaceAll(locale, "-", "_")), true
}

func (r *Registry) formatTime(t time.Time, pattern, locale string) string {
	layout := r.layout(pattern)
	if l, ok := mondayLocale(r.localeOf(locale)); ok {
		return monday.Format(t, layout, l)
	}
	return t.Format(layout)
}

func (r *Registry) parseTime(s, pattern, locale string) (time.Time, error) {
	text := strings.TrimSpace(s)
	var layout string
	if pattern != "" {
		layout = r.layout(pattern)
	} else {
		var err error
		if layout, err = InferLayout(text); err != nil {
			return time.Time{}, err
		}
	}
	var (
		t   time.Time
		err error
	)
	if l, ok := mondayLocale(r.localeOf(locale)); ok {
		t, err = monday.ParseInLocation(layout, text, r.cfg.Location, l)
	} else {
		t, err = time.ParseInLocation(layout, text, r.cfg.Location)
	}
	if err != nil {
		return time.Time{}, conversionf("parse date %q with layout %q: %s", s, layout, err)
	}
	return t, nil
}

// serialToTime reads a serial date, rounding to the second.
func (r *Registry) serialToTime(serial float64) (time.Time, error) {
	if serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, conversionf("%g is not a valid serial date", serial)
	}
	t, err := excelize.ExcelDateToTime(serial, r.cfg.Date1904)
	if err != nil {
		return time.Time{}, conversionf("serial date %g: %s", serial, err)
	}
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, r.cfg.Location), nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type temporalConverter struct{}

func (temporalConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return cell.None(), nil
		}
		t = *x
	case string:
		if strings.TrimSpace(x) == "" {
			return cell.None(), nil
		}
		var err error
		if t, err = r.parseTime(x, s.Format, s.Locale); err != nil {
			return cell.Value{}, err
		}
	default:
		if !isNumeric(v) {
			return cell.Value{}, conversionf("%T is not a date", v)
		}
		f, _, err := toFloat(v)
		if err != nil {
			return cell.Value{}, err
		}
		if t, err = r.serialToTime(f); err != nil {
			return cell.Value{}, err
		}
	}
	pattern := s.Format
	if pattern == "" {
		pattern = r.cfg.DateTimeFormat
		if s.Type == TypeDate {
			pattern = r.cfg.DateFormat
		}
	}
	if s.Type == TypeDate {
		t = truncateDay(t)
	}
	return cell.Temporal(t, ExcelNumFmt(pattern)), nil
}

func (temporalConverter) Decode(r *Registry, c cell.Value, s Spec) (interface{}, error) {
	var (
		t   time.Time
		err error
	)
	switch c.Kind {
	case cell.KindTemporal:
		t = c.Time
	case cell.KindNumber:
		if t, err = r.serialToTime(c.Number); err != nil {
			return nil, err
		}
	case cell.KindText, cell.KindRichText:
		text := strings.TrimSpace(c.PlainText())
		if text == "" {
			return nil, nil
		}
		if t, err = r.parseTime(text, s.Format, s.Locale); err != nil {
			// streamed cells carry serial dates as raw text
			if serial, perr := strconv.ParseFloat(text, 64); perr == nil {
				t, err = r.serialToTime(serial)
			}
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, conversionf("cannot read %s cell as %s", c.Kind, s.Type)
	}
	if s.Type == TypeDate {
		return truncateDay(t), nil
	}
	return t, nil
}
