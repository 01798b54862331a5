// Package placeholder parses substitution tokens in template cell text.
//
// Grammar:
//
//	token  = "{" path [ ":" marker ] "}"
//	path   = segment { "." segment }
//	segment = 1*( ALPHA / DIGIT / "_" / "-" )
//	marker = "image" / "qr_code"
//
// A backslash escapes "{", "}" and itself. Any other brace use is malformed.
// A numeric segment selects one element of a sequence, as in {items.0.name};
// a sequence reached without one expands over every element.
package placeholder

import (
	"errors"
	"fmt"
	"strings"
)

// Marker changes how a resolved value is rendered.
type Marker string

const (
	MarkerNone   Marker = ""
	MarkerImage  Marker = "image"
	MarkerQRCode Marker = "qr_code"
)

var errMalformed = errors.New("malformed placeholder")

// Token is one parsed placeholder.
type Token struct {
	// Raw is the token as written, braces included.
	Raw    string
	Path   []string
	Marker Marker
}

// Key is the dotted path of the token.
func (t Token) Key() string { return strings.Join(t.Path, ".") }

// Part is either literal text or a token.
type Part struct {
	Literal string
	Token   *Token
}

// Text is parsed cell text.
type Text struct {
	Raw   string
	Parts []Part
}

// Parse splits s into literal parts and tokens.
func Parse(s string) (t Text, err error) {
	t.Raw = s
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.Parts = append(t.Parts, Part{Literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '}' || s[i+1] == '\\') {
				lit.WriteByte(s[i+1])
				i++
				continue
			}
			lit.WriteByte(c)
		case '}':
			return Text{Raw: s}, fmt.Errorf("%w: unmatched } at %d", errMalformed, i)
		case '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return Text{Raw: s}, fmt.Errorf("%w: unclosed { at %d", errMalformed, i)
			}
			tok, perr := parseToken(s[i : i+end+1])
			if perr != nil {
				return Text{Raw: s}, perr
			}
			flush()
			t.Parts = append(t.Parts, Part{Token: &tok})
			i += end
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return
}

func parseToken(raw string) (tok Token, err error) {
	tok.Raw = raw
	body := raw[1 : len(raw)-1]
	if i := strings.IndexByte(body, ':'); i >= 0 {
		switch m := Marker(body[i+1:]); m {
		case MarkerImage, MarkerQRCode:
			tok.Marker = m
		default:
			err = fmt.Errorf("%w: unknown marker %q in %s", errMalformed, m, raw)
			return
		}
		body = body[:i]
	}
	tok.Path = strings.Split(body, ".")
	for _, seg := range tok.Path {
		if !validSegment(seg) {
			err = fmt.Errorf("%w: bad path segment %q in %s", errMalformed, seg, raw)
			return
		}
	}
	return
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, c := range seg {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// IsMalformed reports whether err comes from Parse.
func IsMalformed(err error) bool { return errors.Is(err, errMalformed) }

// Tokens returns the tokens in order of appearance.
func (t Text) Tokens() []Token {
	var tokens []Token
	for _, p := range t.Parts {
		if p.Token != nil {
			tokens = append(tokens, *p.Token)
		}
	}
	return tokens
}

// HasTokens reports whether t holds at least one token.
func (t Text) HasTokens() bool {
	for _, p := range t.Parts {
		if p.Token != nil {
			return true
		}
	}
	return false
}

// Single returns the token when it is the whole text.
func (t Text) Single() (Token, bool) {
	if len(t.Parts) == 1 && t.Parts[0].Token != nil {
		return *t.Parts[0].Token, true
	}
	return Token{}, false
}

// Unescaped is the text with escapes resolved and tokens kept as written.
func (t Text) Unescaped() string {
	return t.Render(func(Token) (string, bool) { return "", false })
}

// Render substitutes tokens; tokens render returns false for are kept as written.
func (t Text) Render(render func(tok Token) (string, bool)) string {
	var b strings.Builder
	for _, p := range t.Parts {
		if p.Token == nil {
			b.WriteString(p.Literal)
			continue
		}
		if s, ok := render(*p.Token); ok {
			b.WriteString(s)
			continue
		}
		b.WriteString(p.Token.Raw)
	}
	return b.String()
}
