// Package detect guesses the character encoding of a byte buffer.
package detect

import (
	"github.com/saintfish/chardet"
	"github.com/sdejongh/textnorris/pkg/models"
)

// Classifier returns the best-guess encoding of a buffer
type Classifier interface {
	Detect(buf []byte) models.EncodingVerdict
}

// ClassifierFunc adapts a plain function to the Classifier interface
type ClassifierFunc func(buf []byte) models.EncodingVerdict

// Detect calls f(buf)
func (f ClassifierFunc) Detect(buf []byte) models.EncodingVerdict {
	return f(buf)
}

// chardet reports a few charsets under names no decoder table knows
var aliases = map[string]string{
	"GB-18030": "GB18030",
}

// Chardet classifies text with the ICU-derived chardet detector
type Chardet struct {
	detector *chardet.Detector
}

// NewChardet creates a text classifier
func NewChardet() *Chardet {
	return &Chardet{detector: chardet.NewTextDetector()}
}

// Detect returns the top-ranked candidate. An empty buffer, a detector
// error or an empty candidate list all fall back to UTF-8.
func (c *Chardet) Detect(buf []byte) models.EncodingVerdict {
	if len(buf) == 0 {
		return models.NewEncodingVerdict(models.DefaultEncoding, 0)
	}

	results, err := c.detector.DetectAll(buf)
	if err != nil || len(results) == 0 {
		return models.NewEncodingVerdict(models.DefaultEncoding, 0)
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}

	return models.NewEncodingVerdict(canonical(best.Charset), best.Confidence)
}

func canonical(charset string) string {
	if alias, ok := aliases[models.NormalizeLabel(charset)]; ok {
		return alias
	}
	return charset
}
