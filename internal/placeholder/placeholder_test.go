package placeholder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `
{
	"title": "Report",
	"customer": {
		"name": "Ann",
		"logo": "data:image/png;base64,"
	},
	"items": [
		{"name": "A", "qty": 1},
		{"name": "B", "qty": 2}
	],
	"codes": ["c-1", "c-2"]
}`

func payload(t *testing.T) interface{} {
	t.Helper()
	var data interface{}
	require.NoError(t, json.Unmarshal([]byte(testJSON), &data))
	return data
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		tokens []Token
		single bool
	}{
		{in: "plain"},
		{
			in:     "{title}",
			tokens: []Token{{Raw: "{title}", Path: []string{"title"}}},
			single: true,
		},
		{
			in: "Dear {customer.name}, total {items.qty}",
			tokens: []Token{
				{Raw: "{customer.name}", Path: []string{"customer", "name"}},
				{Raw: "{items.qty}", Path: []string{"items", "qty"}},
			},
		},
		{
			in:     "{customer.logo:image}",
			tokens: []Token{{Raw: "{customer.logo:image}", Path: []string{"customer", "logo"}, Marker: MarkerImage}},
			single: true,
		},
		{
			in:     "{codes:qr_code}",
			tokens: []Token{{Raw: "{codes:qr_code}", Path: []string{"codes"}, Marker: MarkerQRCode}},
			single: true,
		},
	}
	for _, test := range tests {
		text, err := Parse(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.tokens, text.Tokens(), test.in)
		assert.Equal(t, len(test.tokens) > 0, text.HasTokens(), test.in)
		_, single := text.Single()
		assert.Equal(t, test.single, single, test.in)
	}
}

func TestParseEscapes(t *testing.T) {
	text, err := Parse(`\{literal\} {x} \\ end`)
	require.NoError(t, err)
	require.Len(t, text.Tokens(), 1)
	assert.Equal(t, `{literal} {x} \ end`, text.Unescaped())
	assert.Equal(t, `{literal} 1 \ end`, text.Render(func(Token) (string, bool) { return "1", true }))
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"{", "}", "{a b}", "{}", "{a..b}", "{a:table}", "{a", "x}"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, IsMalformed(err), in)
	}
}

func TestLookup(t *testing.T) {
	s := NewSource(payload(t))

	v, ok := s.Lookup([]string{"customer", "name"})
	assert.True(t, ok)
	assert.Equal(t, "Ann", v)

	v, ok = s.Lookup([]string{"items", "1", "name"})
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	_, ok = s.Lookup([]string{"customer", "missing"})
	assert.False(t, ok)
	_, ok = s.Lookup([]string{"items", "9"})
	assert.False(t, ok)

	v, ok = Lookup(map[string]int{"n": 3}, []string{"n"})
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestBind(t *testing.T) {
	s := NewSource(payload(t))

	b, ok := s.Bind([]string{"items", "name"})
	require.True(t, ok)
	assert.Equal(t, "items", b.Key())
	assert.Equal(t, []string{"name"}, b.Rest)
	assert.Len(t, b.Items, 2)

	b, ok = s.Bind([]string{"codes"})
	require.True(t, ok)
	assert.Empty(t, b.Rest)
	assert.Equal(t, []interface{}{"c-1", "c-2"}, b.Items)

	_, ok = s.Bind([]string{"customer", "name"})
	assert.False(t, ok)

	root := NewSource([]map[string]interface{}{{"name": "A"}})
	b, ok = root.Bind([]string{"name"})
	require.True(t, ok)
	assert.Equal(t, "", b.Key())
	assert.Equal(t, []string{"name"}, b.Rest)

	_, ok = NewSource(map[string]interface{}{"img": []byte{1}}).Bind([]string{"img"})
	assert.False(t, ok)
}

func TestBindElement(t *testing.T) {
	s := NewSource(payload(t))

	_, ok := s.Bind([]string{"items", "0", "name"})
	assert.False(t, ok)
	v, ok := s.Resolve(Token{Path: []string{"items", "1", "name"}})
	require.True(t, ok)
	assert.Equal(t, "B", v)

	nested := NewSource(map[string]interface{}{
		"orders": []interface{}{
			map[string]interface{}{"lines": []interface{}{"l-1", "l-2"}},
		},
	})
	b, ok := nested.Bind([]string{"orders", "0", "lines"})
	require.True(t, ok)
	assert.Equal(t, "orders.0.lines", b.Key())
	assert.Empty(t, b.Rest)
	assert.Len(t, b.Items, 2)

	root := NewSource([]interface{}{"a", "b"})
	_, ok = root.Bind([]string{"1"})
	assert.False(t, ok)
}
