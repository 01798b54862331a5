package qrcode

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

var errEmptyPayload = errors.New("qr code payload is empty")

// Creator qr codes.
type Creator struct {
	level qrcode.RecoveryLevel
}

// Option of creator.
type Option func(c *Creator)

// WithRecovery sets the error recovery level: low, medium, high or highest.
func WithRecovery(level string) Option {
	return func(c *Creator) {
		switch level {
		case "low":
			c.level = qrcode.Low
		case "high":
			c.level = qrcode.High
		case "highest":
			c.level = qrcode.Highest
		default:
			c.level = qrcode.Medium
		}
	}
}

// NewCreator ...
func NewCreator(opts ...Option) *Creator {
	c := &Creator{level: qrcode.Medium}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create returns png bytes of a qr code with side size pixels.
func (c *Creator) Create(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, errEmptyPayload
	}
	return qrcode.Encode(payload, c.level, size)
}
