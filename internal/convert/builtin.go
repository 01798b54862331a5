package convert

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/geoirb/sheetbind/internal/cell"
)

// defaultImage is a 1x1 transparent png used for empty image payloads.
const defaultImage = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABAQMAAAAl21bKAAAAA1BMVEUAAACnej3aAAAAAXRSTlMAQObYZgAAAApJREFUCNdjYAAAAAIAAeIhvDMAAAAASUVORK5CYII="

type stringConverter struct{}

func (stringConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	if str, ok := v.(string); ok {
		return cell.Text(str), nil
	}
	text, err := r.Format(v, s)
	if err != nil {
		return cell.Value{}, err
	}
	return cell.Text(text), nil
}

func (stringConverter) Decode(r *Registry, c cell.Value, s Spec) (interface{}, error) {
	switch c.Kind {
	case cell.KindNumber:
		if s.Format != "" {
			return r.formatNumber(c.Number, s.Format, s.Locale), nil
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64), nil
	case cell.KindTemporal:
		return r.Format(c.Time, s)
	case cell.KindImage:
		return nil, conversionf("cannot read image cell as text")
	}
	return c.PlainText(), nil
}

type boolConverter struct{}

func (boolConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	switch x := v.(type) {
	case bool:
		return cell.Bool(x), nil
	case string:
		b, err := r.parseBool(x)
		if err != nil {
			return cell.Value{}, err
		}
		return cell.Bool(b), nil
	}
	if isNumeric(v) {
		f, _, err := toFloat(v)
		if err != nil {
			return cell.Value{}, err
		}
		return cell.Bool(f != 0), nil
	}
	return cell.Value{}, conversionf("%T is not a boolean", v)
}

func (boolConverter) Decode(r *Registry, c cell.Value, s Spec) (interface{}, error) {
	switch c.Kind {
	case cell.KindBoolean:
		return c.Bool, nil
	case cell.KindNumber:
		return c.Number != 0, nil
	case cell.KindText, cell.KindRichText, cell.KindFormula:
		return r.parseBool(c.PlainText())
	}
	return nil, conversionf("cannot read %s cell as bool", c.Kind)
}

func (r *Registry) parseBool(s string) (bool, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	for _, t := range r.cfg.TrueStrings {
		if text == strings.ToLower(t) {
			return true, nil
		}
	}
	for _, f := range r.cfg.FalseStrings {
		if text == strings.ToLower(f) {
			return false, nil
		}
	}
	return false, conversionf("%q is not a boolean", s)
}

type richTextConverter struct{}

func (richTextConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	switch x := v.(type) {
	case []cell.RichTextRun:
		return cell.Rich(x...), nil
	case cell.RichTextRun:
		return cell.Rich(x), nil
	case cell.Value:
		if x.Kind == cell.KindRichText {
			return x, nil
		}
		return cell.Rich(cell.RichTextRun{Text: x.PlainText()}), nil
	}
	text, err := r.Format(v, s)
	if err != nil {
		return cell.Value{}, err
	}
	return cell.Rich(cell.RichTextRun{Text: text}), nil
}

func (richTextConverter) Decode(_ *Registry, c cell.Value, _ Spec) (interface{}, error) {
	if c.Kind == cell.KindRichText {
		return c.Runs, nil
	}
	return []cell.RichTextRun{{Text: c.PlainText()}}, nil
}

type imageConverter struct{}

func (imageConverter) Encode(_ *Registry, v interface{}, _ Spec) (cell.Value, error) {
	switch x := v.(type) {
	case []byte:
		return imageCell(x), nil
	case *cell.Image:
		if x == nil {
			return cell.None(), nil
		}
		return cell.Value{Kind: cell.KindImage, Image: x}, nil
	case cell.Image:
		return cell.Value{Kind: cell.KindImage, Image: &x}, nil
	case string:
		data, err := decodeBase64Image(x)
		if err != nil {
			return cell.Value{}, err
		}
		return imageCell(data), nil
	case io.Reader:
		data, err := io.ReadAll(x)
		if err != nil {
			return cell.Value{}, conversionf("read image: %s", err)
		}
		return imageCell(data), nil
	}
	return cell.Value{}, conversionf("%T is not an image", v)
}

func (imageConverter) Decode(_ *Registry, c cell.Value, _ Spec) (interface{}, error) {
	if c.Kind == cell.KindImage {
		return c.Image, nil
	}
	return nil, conversionf("cannot read %s cell as image", c.Kind)
}

// decodeBase64Image accepts raw base64 or a data URL; empty input yields the default image.
func decodeBase64Image(s string) ([]byte, error) {
	image := s[strings.Index(s, ",")+1:]
	if len(image) == 0 {
		image = defaultImage
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, conversionf("decode image: %s", err)
	}
	return data, nil
}

func imageCell(data []byte) cell.Value {
	return cell.ImageOf(data, imageExtension(data))
}

func imageExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	}
	return ".png"
}

type formulaConverter struct{}

func (formulaConverter) Encode(_ *Registry, v interface{}, _ Spec) (cell.Value, error) {
	switch x := v.(type) {
	case string:
		return cell.Formula(x), nil
	case fmt.Stringer:
		return cell.Formula(x.String()), nil
	}
	return cell.Value{}, conversionf("%T is not a formula", v)
}

func (formulaConverter) Decode(_ *Registry, c cell.Value, _ Spec) (interface{}, error) {
	return c.PlainText(), nil
}

// qrCodeConverter renders text payloads as qr code images.
type qrCodeConverter struct {
	creator qrCreator
}

func (q qrCodeConverter) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	payload, err := r.Format(v, Spec{})
	if err != nil {
		return cell.Value{}, err
	}
	size := r.cfg.QRCodeSize
	if s.Format != "" {
		if size, err = strconv.Atoi(s.Format); err != nil {
			return cell.Value{}, conversionf("qr code size %q: %s", s.Format, err)
		}
	}
	data, err := q.creator.Create(payload, size)
	if err != nil {
		return cell.Value{}, conversionf("qr code generate: %s", err)
	}
	return cell.ImageOf(data, ".png"), nil
}

func (qrCodeConverter) Decode(_ *Registry, c cell.Value, _ Spec) (interface{}, error) {
	return nil, conversionf("cannot read %s cell as qr code", c.Kind)
}
