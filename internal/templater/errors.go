package templater

import (
	"errors"
)

var (
	errUnknownTemplateType = errors.New("unknown template type")
	errUnknownDocumentType = errors.New("unknown document type")
)
