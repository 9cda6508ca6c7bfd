package models

import "strings"

// DefaultEncoding is assumed when the classifier has no answer
const DefaultEncoding = "UTF-8"

// EncodingVerdict is the classifier's best guess for one buffer.
// Label is only for comparisons; RawLabel is what a decoder receives.
type EncodingVerdict struct {
	Label      string
	RawLabel   string
	Confidence int
}

// NewEncodingVerdict builds a verdict from a raw detector label
func NewEncodingVerdict(raw string, confidence int) EncodingVerdict {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultEncoding
	}
	return EncodingVerdict{
		Label:      NormalizeLabel(raw),
		RawLabel:   raw,
		Confidence: confidence,
	}
}

// NormalizeLabel uppercases and trims an encoding name
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

func (v EncodingVerdict) String() string {
	return v.RawLabel
}
