// Package ident turns arbitrary XML names into legal Avro identifiers,
// with collision-free suffixing against Avro's reserved type names and
// against sibling field names within one record.
package ident

import "strings"

// reserved holds Avro's built-in type names. A sanitized identifier
// that collides with one of these is suffixed until it doesn't.
var reserved = map[string]bool{
	"boolean": true, "int": true, "long": true, "float": true,
	"double": true, "bytes": true, "string": true, "null": true,
	"record": true, "enum": true, "array": true, "map": true,
	"union": true, "fixed": true,
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Sanitizer sanitizes names for the lifetime of one schema translation.
// Reserved-name collisions are disambiguated with a single counter
// shared across every name sanitized by this Sanitizer: once a
// candidate suffix is consumed by one collision, later collisions
// start from the next integer rather than reusing it.
type Sanitizer struct {
	nextReserved int
}

// Sanitize strips any character that is not an ASCII letter, digit or
// underscore; '.' and '-' are replaced with '_' in place. If the result
// begins with a digit, an underscore is prepended. If the result
// collides with a reserved Avro type name, a numeric suffix is
// appended. Sanitize("") returns "".
func (s *Sanitizer) Sanitize(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '.' || r == '-':
			b.WriteByte('_')
		case r == '_' || isASCIILetter(r) || isASCIIDigit(r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return out
	}
	if isASCIIDigit(rune(out[0])) {
		out = "_" + out
	}
	if reserved[out] {
		out = s.disambiguateReserved(out)
	}
	return out
}

func (s *Sanitizer) disambiguateReserved(base string) string {
	for {
		candidate := base + itoa(s.nextReserved)
		s.nextReserved++
		if !reserved[candidate] {
			return candidate
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// FieldNamer disambiguates field names within a single record: the
// first field with a given sanitized base name keeps it bare, every
// later field with the same base name is suffixed 0, 1, 2, ...
type FieldNamer struct {
	next map[string]int
}

// Name returns the name to use for the next field whose sanitized
// name is base.
func (f *FieldNamer) Name(base string) string {
	if f.next == nil {
		f.next = make(map[string]int)
	}
	n, seen := f.next[base]
	if !seen {
		f.next[base] = 0
		return base
	}
	f.next[base] = n + 1
	return base + itoa(n)
}
