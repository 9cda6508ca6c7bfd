package transcode

import (
	"bytes"
	"strings"
)

// UTF8BOM is the UTF-8 encoding of U+FEFF
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// HasBOM reports whether buf starts with a UTF-8 byte-order mark
func HasBOM(buf []byte) bool {
	return bytes.HasPrefix(buf, UTF8BOM)
}

// StripBOM removes a leading UTF-8 byte-order mark, no-op if absent
func StripBOM(buf []byte) []byte {
	return bytes.TrimPrefix(buf, UTF8BOM)
}

// StripBOMString removes a leading U+FEFF from decoded text
func StripBOMString(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
