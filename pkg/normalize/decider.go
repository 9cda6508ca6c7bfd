// Package normalize walks a directory tree and rewrites eligible text files
// as byte-order-mark-free UTF-8.
package normalize

import (
	"strings"

	"github.com/sdejongh/textnorris/pkg/detect"
	"github.com/sdejongh/textnorris/pkg/models"
	"github.com/sdejongh/textnorris/pkg/transcode"
)

// GB-family labels are all decoded with the GB18030 superset table
const gbDecodeLabel = "GB18030"

// Plan is the outcome of classifying one buffer
type Plan struct {
	Verdict models.EncodingVerdict
	Action  models.Action

	// Output holds the UTF-8 bytes to write back, nil when nothing is written
	Output []byte

	// Err is set when a best-effort decode failed; the file stays untouched
	Err error
}

// Rewrites reports whether the plan asks for a write
func (p Plan) Rewrites() bool {
	return p.Err == nil && p.Action.Rewrites()
}

// Decider maps a buffer to an action through the encoding decision table
type Decider struct {
	classifier detect.Classifier
	transcoder *transcode.Transcoder
}

// NewDecider creates a decider. A nil classifier selects chardet.
func NewDecider(classifier detect.Classifier, transcoder *transcode.Transcoder) *Decider {
	if classifier == nil {
		classifier = detect.NewChardet()
	}
	if transcoder == nil {
		transcoder = transcode.New()
	}
	return &Decider{classifier: classifier, transcoder: transcoder}
}

// Decide classifies buf and picks the action. Rules are tried in order and
// the first match wins.
func (d *Decider) Decide(buf []byte) Plan {
	verdict := d.classifier.Detect(buf)
	plan := Plan{Verdict: verdict}

	switch label := verdict.Label; {
	case label == "ISO-8859-1" || label == "ASCII":
		plan.Action = models.ActionSkipSingleByte

	case label == "UTF-8":
		if transcode.HasBOM(buf) {
			plan.Action = models.ActionStripBOM
			plan.Output = transcode.StripBOM(buf)
		} else {
			plan.Action = models.ActionSkipUTF8
		}

	case label == "GB18030" || label == "GBK" || label == "GB2312":
		plan.Action = models.ActionTranscode
		d.decode(&plan, buf, gbDecodeLabel)

	case strings.Contains(label, "UTF-16"):
		plan.Action = models.ActionTranscode
		d.decode(&plan, buf, verdict.RawLabel)

	default:
		plan.Action = models.ActionBestEffort
		d.decode(&plan, buf, verdict.RawLabel)
	}

	return plan
}

func (d *Decider) decode(plan *Plan, buf []byte, label string) {
	text, err := d.transcoder.Decode(buf, label)
	if err != nil {
		plan.Err = err
		return
	}
	plan.Output = []byte(transcode.StripBOMString(text))
}
