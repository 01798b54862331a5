package placeholder

import (
	"reflect"
	"strconv"
)

// Source looks up key paths in decoded data: maps with string keys,
// sequences (indexed by numeric segments) and scalars.
type Source struct {
	root interface{}
}

// NewSource wraps data.
func NewSource(data interface{}) Source { return Source{root: data} }

// Root returns the wrapped data.
func (s Source) Root() interface{} { return s.root }

// Lookup follows path from the root.
func (s Source) Lookup(path []string) (interface{}, bool) {
	return Lookup(s.root, path)
}

// Resolve looks up the path of tok.
func (s Source) Resolve(tok Token) (interface{}, bool) {
	return Lookup(s.root, tok.Path)
}

// Binding splits a token path at the first segment resolving to a sequence.
type Binding struct {
	// Collection is the path of the sequence, empty when the root is the sequence.
	Collection []string
	// Rest is the path inside one element.
	Rest  []string
	Items []interface{}
}

// Key identifies the collection.
func (b Binding) Key() string { return Token{Path: b.Collection}.Key() }

// Bind returns the collection binding of path, false for scalar paths.
// A sequence followed by a numeric segment is an explicit element and is
// not bound.
func (s Source) Bind(path []string) (Binding, bool) {
	v := s.root
	for i := 0; ; i++ {
		if items, ok := Sequence(v); ok && !indexed(path, i) {
			return Binding{Collection: path[:i], Rest: path[i:], Items: items}, true
		}
		if i == len(path) {
			return Binding{}, false
		}
		var ok bool
		if v, ok = step(v, path[i]); !ok {
			return Binding{}, false
		}
	}
}

func indexed(path []string, i int) bool {
	if i >= len(path) {
		return false
	}
	_, err := strconv.Atoi(path[i])
	return err == nil
}

// Lookup follows path inside v.
func Lookup(v interface{}, path []string) (interface{}, bool) {
	for _, seg := range path {
		var ok bool
		if v, ok = step(v, seg); !ok {
			return nil, false
		}
	}
	return v, true
}

func step(v interface{}, seg string) (interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		x, ok := m[seg]
		return x, ok
	case map[string]string:
		x, ok := m[seg]
		return x, ok
	}
	if items, ok := Sequence(v); ok {
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(items) {
			return nil, false
		}
		return items[i], true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		x := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	}
	return nil, false
}

// Sequence returns the elements of a slice or array value. Byte slices are
// scalars (image payloads).
func Sequence(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case nil, []byte, string:
		return nil, false
	case []interface{}:
		return x, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
