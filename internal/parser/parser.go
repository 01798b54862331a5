// Package parser tells the document type from a file name.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const extensionRegexp = `\.([A-Za-z0-9]+)$`

var (
	errTypeNotDefined = errors.New("document type is not defined")
	errTypeUnknown    = errors.New("unknown document type")
)

// families maps extensions onto the document type handling them. Macro and
// template variants share the xlsx container.
var families = map[string]string{
	"xlsx": "xlsx",
	"xlsm": "xlsx",
	"xltx": "xlsx",
	"xltm": "xlsx",
}

// Parser ...
type Parser struct {
	extension *regexp.Regexp
}

// New ...
func New() (p *Parser, err error) {
	p = &Parser{}
	p.extension, err = regexp.Compile(extensionRegexp)
	return
}

// Type returns the document type of filename.
func (p *Parser) Type(filename string) (documentType string, err error) {
	match := p.extension.FindStringSubmatch(filename)
	if len(match) != 2 {
		err = fmt.Errorf("%s: %w", filename, errTypeNotDefined)
		return
	}
	ext := strings.ToLower(match[1])
	documentType, ok := families[ext]
	if !ok {
		err = fmt.Errorf("%s: %w", ext, errTypeUnknown)
	}
	return
}
