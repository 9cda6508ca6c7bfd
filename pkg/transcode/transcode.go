// Package transcode decodes text buffers from a named encoding into UTF-8.
package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnsupportedEncoding is returned for labels no decoder table knows
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// DecodeError reports a buffer that is not valid under a label
type DecodeError struct {
	Label  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "cannot decode as " + e.Label + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// codec pairs the decoding side of an encoding with a BOM-less variant used
// to tell literal replacement characters from decoding failures
type codec struct {
	decode encoding.Encoding
	plain  encoding.Encoding
}

// Unicode variants are resolved here so the byte order the classifier
// reported survives; IANA tables fold them together.
var unicodeCodecs = map[string]codec{
	"UTF-8": {unicode.UTF8, unicode.UTF8},
	"UTF-16": {
		unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
		unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	},
	"UTF-16LE": {
		unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	},
	"UTF-16BE": {
		unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	},
	"UTF-32": {
		utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
		utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	},
	"UTF-32LE": {
		utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
		utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	},
	"UTF-32BE": {
		utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
		utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	},
}

// Lookup resolves an encoding label
func Lookup(label string) (encoding.Encoding, error) {
	c, err := lookupCodec(label)
	if err != nil {
		return nil, err
	}
	return c.decode, nil
}

func lookupCodec(label string) (codec, error) {
	name := strings.TrimSpace(label)
	if c, ok := unicodeCodecs[strings.ToUpper(name)]; ok {
		return c, nil
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return codec{enc, enc}, nil
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return codec{enc, enc}, nil
	}

	return codec{}, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
}

// Transcoder decodes buffers into UTF-8 text
type Transcoder struct{}

// New creates a transcoder
func New() *Transcoder {
	return &Transcoder{}
}

// Decode decodes buf under label. Decoding is strict: invalid sequences,
// which the underlying tables would silently turn into U+FFFD, fail.
func (t *Transcoder) Decode(buf []byte, label string) (string, error) {
	c, err := lookupCodec(label)
	if err != nil {
		return "", &DecodeError{Label: label, Reason: "no decoder", Err: err}
	}

	out, err := c.decode.NewDecoder().Bytes(buf)
	if err != nil {
		return "", &DecodeError{Label: label, Reason: "decoder failed", Err: err}
	}

	if replaced := bytes.Count(out, replacementUTF8); replaced > 0 {
		if replaced > literalReplacements(c.plain, buf) {
			return "", &DecodeError{Label: label, Reason: "invalid byte sequence"}
		}
	}

	return string(out), nil
}

var replacementUTF8 = []byte(string(utf8.RuneError))

// literalReplacements counts U+FFFD characters encoded in buf itself
func literalReplacements(enc encoding.Encoding, buf []byte) int {
	rep, err := enc.NewEncoder().Bytes(replacementUTF8)
	if err != nil || len(rep) == 0 {
		return 0
	}
	return bytes.Count(buf, rep)
}
