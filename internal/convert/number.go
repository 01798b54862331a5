package convert

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/geoirb/sheetbind/internal/cell"
)

// maxExactInt is the largest integer a float64 holds without loss.
const maxExactInt = 1 << 53

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}

// toFloat widens v to float64 and reports the absolute precision lost.
func toFloat(v interface{}) (f float64, loss float64, err error) {
	switch x := v.(type) {
	case int:
		return intToFloat(int64(x))
	case int8:
		return float64(x), 0, nil
	case int16:
		return float64(x), 0, nil
	case int32:
		return float64(x), 0, nil
	case int64:
		return intToFloat(x)
	case uint:
		return uintToFloat(uint64(x))
	case uint8:
		return float64(x), 0, nil
	case uint16:
		return float64(x), 0, nil
	case uint32:
		return float64(x), 0, nil
	case uint64:
		return uintToFloat(x)
	case float32:
		return float64(x), 0, nil
	case float64:
		return x, 0, nil
	case json.Number:
		f, err = strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, 0, conversionf("parse number %q: %s", string(x), err)
		}
		return f, 0, nil
	}
	return 0, 0, conversionf("%T is not a number", v)
}

func intToFloat(i int64) (float64, float64, error) {
	f := float64(i)
	if i > -maxExactInt && i < maxExactInt {
		return f, 0, nil
	}
	return f, lossOf(big.NewInt(i), f), nil
}

func uintToFloat(u uint64) (float64, float64, error) {
	f := float64(u)
	if u < maxExactInt {
		return f, 0, nil
	}
	return f, lossOf(new(big.Int).SetUint64(u), f), nil
}

// lossOf is |exact - f| computed without overflowing machine integers.
func lossOf(exact *big.Int, f float64) float64 {
	rounded, _ := new(big.Float).SetFloat64(f).Int(nil)
	diff := new(big.Int).Sub(exact, rounded)
	loss, _ := new(big.Float).SetInt(diff.Abs(diff)).Float64()
	return loss
}

// exceeds compares loss against the tolerance scaled by magnitude; a zero
// magnitude makes the tolerance absolute.
func (r *Registry) exceeds(loss, magnitude float64) bool {
	return loss > r.cfg.Tolerance*math.Max(1, math.Abs(magnitude))
}

func formatPlain(v interface{}, f float64) string {
	switch x := v.(type) {
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(x), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(x), 10)
	case json.Number:
		return string(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}
	return 0
}

func toUint64(v interface{}) uint64 {
	switch x := v.(type) {
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	}
	return 0
}

// numberPattern is the subset of decimal patterns the registry understands:
// grouping (#,##0), fraction digits (0.00 required, 0.## optional) and a percent suffix.
type numberPattern struct {
	grouping bool
	minFrac  int
	maxFrac  int
	percent  bool
}

func parseNumberPattern(p string) numberPattern {
	var np numberPattern
	np.percent = strings.HasSuffix(strings.TrimSpace(p), "%")
	intPart, fracPart := p, ""
	if i := strings.IndexByte(p, '.'); i >= 0 {
		intPart, fracPart = p[:i], p[i+1:]
	}
	np.grouping = strings.ContainsRune(intPart, ',')
	for _, c := range fracPart {
		switch c {
		case '0':
			np.minFrac++
			np.maxFrac++
		case '#':
			np.maxFrac++
		}
	}
	return np
}

func (r *Registry) localeOf(locale string) string {
	if locale == "" {
		locale = r.cfg.Locale
	}
	return locale
}

func (r *Registry) printer(locale string) *message.Printer {
	return message.NewPrinter(languageTag(r.localeOf(locale)))
}

func languageTag(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}

func (r *Registry) formatNumber(f float64, pattern, locale string) string {
	np := parseNumberPattern(pattern)
	opts := []number.Option{number.MinFractionDigits(np.minFrac), number.MaxFractionDigits(np.maxFrac)}
	if !np.grouping {
		opts = append(opts, number.NoSeparator())
	}
	p := r.printer(locale)
	if np.percent {
		return p.Sprint(number.Percent(f, opts...))
	}
	return p.Sprint(number.Decimal(f, opts...))
}

type separators struct {
	group   []rune
	decimal rune
}

// separatorsOf derives the locale's separators from a formatted probe value.
func (r *Registry) separatorsOf(locale string) separators {
	locale = r.localeOf(locale)
	if s, ok := r.locales.Load(locale); ok {
		return s.(separators)
	}
	probe := message.NewPrinter(languageTag(locale)).Sprint(number.Decimal(1234567.5, number.MinFractionDigits(1)))
	var marks []rune
	for _, c := range probe {
		if !unicode.IsDigit(c) {
			marks = append(marks, c)
		}
	}
	sep := separators{decimal: '.'}
	if len(marks) > 0 {
		sep.decimal = marks[len(marks)-1]
		for _, m := range marks[:len(marks)-1] {
			if m != sep.decimal {
				sep.group = append(sep.group, m)
			}
		}
	}
	r.locales.Store(locale, sep)
	return sep
}

// parseNumber reads a localized number, honouring a trailing percent sign.
func (r *Registry) parseNumber(s, locale string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, conversionf("empty number")
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, conversionf("%q is not a finite number", s)
		}
		return f, nil
	}
	percent := false
	if strings.HasSuffix(text, "%") {
		percent = true
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	}
	sep := r.separatorsOf(locale)
	var b strings.Builder
	for _, c := range text {
		switch {
		case c == sep.decimal:
			b.WriteByte('.')
		case containsRune(sep.group, c), unicode.IsSpace(c):
		default:
			b.WriteRune(c)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, conversionf("parse number %q", s)
	}
	if percent {
		f /= 100
	}
	return f, nil
}

func containsRune(rs []rune, c rune) bool {
	for _, r := range rs {
		if r == c {
			return true
		}
	}
	return false
}

// excelEpoch is day zero of the 1900 date system as used by serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func (r *Registry) timeToSerial(t time.Time) float64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	serial := wall.Sub(excelEpoch).Hours() / 24
	if r.cfg.Date1904 {
		serial -= 1462
	}
	return serial
}

type numberConverter struct{}

func (numberConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	var (
		f    float64
		loss float64
		err  error
	)
	switch x := v.(type) {
	case string:
		if f, err = r.parseNumber(x, s.Locale); err != nil {
			return cell.Value{}, err
		}
	case bool:
		if x {
			f = 1
		}
	default:
		if f, loss, err = toFloat(v); err != nil {
			return cell.Value{}, err
		}
	}
	if r.exceeds(loss, 0) {
		return cell.Value{}, toleranceErr("%v cannot be stored as a number without losing %g", v, loss)
	}
	if s.Format != "" {
		return cell.Text(r.formatNumber(f, s.Format, s.Locale)), nil
	}
	return cell.Number(f), nil
}

func (numberConverter) Decode(r *Registry, c cell.Value, s Spec) (interface{}, error) {
	var (
		f   float64
		err error
	)
	switch c.Kind {
	case cell.KindNumber:
		f = c.Number
	case cell.KindBoolean:
		if c.Bool {
			f = 1
		}
	case cell.KindTemporal:
		f = r.timeToSerial(c.Time)
	case cell.KindText, cell.KindRichText, cell.KindFormula:
		text := c.PlainText()
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		if f, err = r.parseNumber(text, s.Locale); err != nil {
			return nil, err
		}
	default:
		return nil, conversionf("cannot read %s cell as %s", c.Kind, s.Type)
	}
	return r.narrow(f, s.Type)
}

func (r *Registry) narrow(f float64, t Type) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, conversionf("%g is not a finite number", f)
	}
	switch t {
	case TypeFloat:
		return f, nil
	case TypeFloat32:
		if math.Abs(f) > math.MaxFloat32 {
			return nil, conversionf("%g overflows float32", f)
		}
		f32 := float32(f)
		if loss := math.Abs(float64(f32) - f); r.exceeds(loss, f) {
			return nil, toleranceErr("%g loses %g when narrowed to float32", f, loss)
		}
		return f32, nil
	}
	rounded := math.Round(f)
	if loss := math.Abs(f - rounded); r.exceeds(loss, 0) {
		return nil, toleranceErr("%g is not an integer", f)
	}
	switch t {
	case TypeInt:
		if rounded >= math.MaxInt64 || rounded < math.MinInt64 {
			return nil, conversionf("%g overflows int", f)
		}
		return int64(rounded), nil
	case TypeInt32:
		if rounded > math.MaxInt32 || rounded < math.MinInt32 {
			return nil, conversionf("%g overflows int32", f)
		}
		return int32(rounded), nil
	case TypeInt16:
		if rounded > math.MaxInt16 || rounded < math.MinInt16 {
			return nil, conversionf("%g overflows int16", f)
		}
		return int16(rounded), nil
	case TypeInt8:
		if rounded > math.MaxInt8 || rounded < math.MinInt8 {
			return nil, conversionf("%g overflows int8", f)
		}
		return int8(rounded), nil
	}
	return nil, conversionf("%q is not a numeric type", t)
}
