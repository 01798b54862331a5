package schema

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/geoirb/sheetbind/internal/convert"
)

// Titles is a header path. In YAML it is either a scalar or a sequence.
type Titles []string

// UnmarshalYAML accepts `title: Name` as well as `title: [Group, Name]`.
func (t *Titles) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = Titles{value.Value}
		return nil
	case yaml.SequenceNode:
		var titles []string
		if err := value.Decode(&titles); err != nil {
			return err
		}
		*t = titles
		return nil
	}
	return fmt.Errorf("line %d: title must be a string or a list of strings", value.Line)
}

// ParseShape reads a YAML shape descriptor.
func ParseShape(data []byte) (shape Shape, err error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(&shape); err != nil {
		err = fmt.Errorf("parse shape: %w", err)
		return
	}
	known := make(map[convert.Type]bool)
	for _, t := range convert.Types() {
		known[t] = true
	}
	for _, f := range shape.Fields {
		if f.Type != convert.TypeAny && !known[f.Type] {
			err = fmt.Errorf("parse shape: field %q: unknown type %q", f.Name, f.Type)
			return
		}
	}
	return
}

// LoadShape reads a YAML shape descriptor from file.
func LoadShape(file string) (Shape, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Shape{}, fmt.Errorf("load shape: %w", err)
	}
	return ParseShape(data)
}
