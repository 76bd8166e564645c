package qrcode

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: content cannot be empty")
	ErrGenerateFailed = errors.New("qrcode: failed to generate image")
	ErrWriteFailed    = errors.New("qrcode: failed to write image")
)

// DefaultSize is the image edge in pixels used when size <= 0.
const DefaultSize = 256

// Level is the error correction level. Authenticator apps scan from a
// screen, so Medium is enough for otpauth URIs.
type Level = skipqrcode.RecoveryLevel

const (
	Low     = skipqrcode.Low
	Medium  = skipqrcode.Medium
	High    = skipqrcode.High
	Highest = skipqrcode.Highest
)

type options struct {
	size  int
	level Level
}

// Option configures image generation.
type Option func(*options)

// WithSize sets the image edge in pixels.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithLevel sets the error correction level.
func WithLevel(l Level) Option {
	return func(o *options) { o.level = l }
}

// PNG renders content as a square PNG image.
func PNG(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	o := options{size: DefaultSize, level: Medium}
	for _, opt := range opts {
		opt(&o)
	}

	png, err := skipqrcode.Encode(content, o.level, o.size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return png, nil
}

// DataURI renders content as a data:image/png;base64 URI suitable for an
// <img src> attribute.
func DataURI(content string, opts ...Option) (string, error) {
	png, err := PNG(content, opts...)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// WriteFile renders content to a PNG file with 0600 permissions. The image
// carries a TOTP secret, so it must not be world readable.
func WriteFile(path, content string, opts ...Option) error {
	png, err := PNG(content, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
