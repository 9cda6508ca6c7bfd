// Package filter decides which directory entries a run looks at.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sdejongh/textnorris/pkg/models"
)

// Built-in values merged into every filter
var (
	DefaultExtensions     = []string{"txt"}
	DefaultIgnorePatterns = []string{`^\.`, `^node_modules$`}
)

// Filter holds the compiled ignore and eligibility matchers.
// It is read-only after New and safe to share across the traversal.
type Filter struct {
	extensions []string
	patterns   []string
	ignore     *regexp.Regexp
	eligible   *regexp.Regexp
}

// New merges the user values with the defaults and compiles them.
// Extensions may be given with or without a leading dot.
func New(extensions, ignorePatterns []string) (*Filter, error) {
	exts := merge(DefaultExtensions, normalizeExtensions(extensions))
	patterns := merge(DefaultIgnorePatterns, ignorePatterns)

	// Validate each pattern on its own so errors name the culprit
	alternatives := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		alternatives = append(alternatives, "(?:"+p+")")
	}
	ignore, err := regexp.Compile(strings.Join(alternatives, "|"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignore patterns: %w", err)
	}

	quoted := make([]string, 0, len(exts))
	for _, ext := range exts {
		quoted = append(quoted, `\.`+regexp.QuoteMeta(ext))
	}
	eligible, err := regexp.Compile(`(?i)(?:` + strings.Join(quoted, "|") + `)$`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extensions: %w", err)
	}

	return &Filter{
		extensions: exts,
		patterns:   patterns,
		ignore:     ignore,
		eligible:   eligible,
	}, nil
}

// IsIgnored reports whether an entry name matches any ignore pattern.
// It applies to files and directories alike.
func (f *Filter) IsIgnored(name string) bool {
	return f.ignore.MatchString(name)
}

// IsEligible reports whether a regular file name ends with an allowed extension
func (f *Filter) IsEligible(name string) bool {
	return f.eligible.MatchString(name)
}

// Extensions returns the merged extension list
func (f *Filter) Extensions() []string {
	return append([]string(nil), f.extensions...)
}

// IgnorePatterns returns the merged ignore pattern list
func (f *Filter) IgnorePatterns() []string {
	return append([]string(nil), f.patterns...)
}

// Config returns the merged lists as a models.FilterConfig
func (f *Filter) Config() models.FilterConfig {
	return models.FilterConfig{
		Extensions:     f.Extensions(),
		IgnorePatterns: f.IgnorePatterns(),
	}
}

// Describe renders the extension list as a glob hint, e.g. "*.txt, *.md"
func (f *Filter) Describe() string {
	globs := make([]string, len(f.extensions))
	for i, ext := range f.extensions {
		globs[i] = "*." + ext
	}
	return strings.Join(globs, ", ")
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// merge appends extra to base, dropping blanks and duplicates, keeping order
func merge(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
