// Package commandline collects the repeatable flags cmd/xsd2avro
// exposes: one or more "-xsd" schema documents, and zero or more "-r"
// rules rewriting an XML local name before it is sanitized into an
// Avro identifier.
package commandline

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// A NameRewrite rewrites XML local names matching Pattern to
// Replacement before the translator's sanitizer ever sees them,
// letting a caller strip vendor prefixes or normalize casing across
// an entire schema without editing the XSD itself.
type NameRewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NameRewrites collects repeated "-r" flags, in the order given on the
// command line.
type NameRewrites []NameRewrite

func (r *NameRewrites) String() string {
	var buf bytes.Buffer
	for _, item := range *r {
		fmt.Fprintf(&buf, "%s -> %s\n", item.Pattern, item.Replacement)
	}
	return buf.String()
}

// Set parses s as "regex -> replacement" and appends the resulting
// rule. Surrounding whitespace around both halves is trimmed.
func (r *NameRewrites) Set(s string) error {
	parts := strings.SplitN(s, "->", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid rename rule %q: must be \"regex -> replacement\"", s)
	}
	pattern := strings.TrimSpace(parts[0])
	replacement := strings.TrimSpace(parts[1])
	if pattern == "" {
		return fmt.Errorf("invalid rename rule %q: empty pattern", s)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid rename pattern %q: %v", pattern, err)
	}
	*r = append(*r, NameRewrite{Pattern: re, Replacement: replacement})
	return nil
}

// Files collects the one or more "-xsd" schema document paths given on
// the command line, in order; the first is the primary schema whose
// target namespace and top-level elements drive root shaping.
type Files []string

func (f *Files) String() string {
	return strings.Join(*f, ",")
}

// Set appends path to the list, rejecting a blank argument so a
// stray repeated "-xsd" flag with no value fails fast rather than
// turning into an empty filename read later.
func (f *Files) Set(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("invalid -xsd argument: path is empty")
	}
	*f = append(*f, path)
	return nil
}
